// Package uploader attaches finished creatives to ad groups on the
// advertising platform.
//
// The coordinator reuses the final URL of an existing enabled ad when one
// is present and submits each creative as an independent, budget-dispatched
// ad creation. Uploads are fire-and-continue, not transactional: a failed
// creative is logged and the rest of the batch proceeds.
package uploader
