// Package domain contains the entities shared by every stage of the pipeline:
// the indicator catalogue, year-aligned tables and the snapshot handed to the
// presentation layer. The types are free of file and registry concerns.
package domain
