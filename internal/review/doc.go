// Package review implements the validation queue that gates golden records
// behind human review.
//
// Every status is reachable from every other status; approved and rejected
// items can be revisited. SetStatus always stamps reviewedAt and only touches
// notes when new notes are supplied. BulkApprove is best effort: ids that do
// not exist are skipped and the returned count comes from the datastore.
package review
