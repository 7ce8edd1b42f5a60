package graph

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaFor renders the Dgraph schema for the lineage graph. Node predicates
// are fixed; one reversible uid predicate is declared per taxonomy edge name.
func SchemaFor(edgeNames []string) string {
	var sb strings.Builder

	sb.WriteString(`
	# Node predicates
	xid: string @index(exact) @upsert .
	node_type: string @index(exact) .
	name: string @index(term) .
	description: string .
	sub_type: string @index(exact) .

	# Edge predicates
`)

	sorted := append([]string(nil), edgeNames...)
	sort.Strings(sorted)
	for _, name := range sorted {
		fmt.Fprintf(&sb, "\t%s: [uid] @reverse .\n", name)
	}

	return sb.String()
}
