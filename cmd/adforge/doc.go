// Command adforge generates locale-aware image ads from shared templates
// and uploads them to the advertising platform, one ad group at a time.
package main
