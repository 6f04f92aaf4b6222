// Package evaluator counts the sets of an attached corpus that share at least
// one value with a probe set.
//
// Two backends implement the same contract: CPU scans the sets with a
// bounded worker pool; Device hands the raw buffer to an accelerator
// device in a single dispatch. Durations cover only the scan itself, never
// pool construction, offset computation or result assembly.
package evaluator
