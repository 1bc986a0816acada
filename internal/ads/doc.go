// Package ads implements the advertising-platform REST client used to
// query enabled ads and create image ads. The client performs no rate
// limiting of its own; callers route requests through dispatch.Budget.
package ads
