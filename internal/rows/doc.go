// Package rows loads the campaign rows that drive a run, either from a
// spreadsheet range over the values REST API or from a local CSV file.
// The first row of either source is the header; columns are matched by
// name, not position.
package rows
