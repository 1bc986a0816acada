// Package selection filters the candidate campaign row-set down to the
// rows one pipeline run should process.
//
// Market filters match case-insensitively on substrings, campaign filters
// match exactly or through the "[ - TAG - ]" marker embedded in campaign
// names, and Dedup guarantees each (account, ad group) pair is admitted at
// most once per run. The processed-key set is owned by the orchestrator and
// passed in explicitly.
package selection
