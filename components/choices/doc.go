// Package choices serves dependent option lists over net/http: given the value
// of a parent field, it answers with the options of the child field as
// {"items":[{"value":"","label":""}]}, the document the ajax binding loads.
//
// The default handler responds to GET and HEAD requests. The key parameter
// selects the list, the query parameter filters it and limit bounds it. The
// default table is embedded from data/regions.txt.
package choices
