// Package httpd is a from-scratch HTTP/1.1-style server engine built on raw
// TCP sockets: no net/http, no connection reuse.
//
// The moving parts are a bounded worker pool (TaskPool), one accept loop
// per IP family feeding it, a hand-written request parser with
// content-type-aware body decoding, an exact-match router, and a Response
// type that serializes with a fixed permissive CORS block. Every response
// closes its connection.
//
// Typical use:
//
//	srv := httpd.NewServer(httpd.Options{Port: 8080})
//	srv.Get("/", func(req *httpd.Request, res *httpd.Response) {
//		res.JSON(`{"message":"hi"}`)
//	})
//	if err := srv.Serve(ctx); err != nil {
//		// IPv4 bind failed
//	}
//
// Serve blocks until ctx is cancelled or Stop is called; queued and
// in-flight connections finish before it returns.
package httpd
