// Package httpclient is the transport under the wavechat backend adapter.
//
// It sends one request at a time with no retry, encodes ordered
// multipart/form-data bodies, tags every request with an X-Request-ID and
// turns any non-2xx response into a single RequestFailed error whose detail
// comes from the body's "detail" field when there is one.
//
//	client, err := httpclient.New(httpclient.Config{BaseURL: "http://localhost:8000"})
//	body := (&httpclient.MultipartBody{}).Add("sessionId", id).Add("message", msg)
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/api/chat",
//	    Body:   body,
//	})
package httpclient
