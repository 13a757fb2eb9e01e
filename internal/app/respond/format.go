package respond

import (
	"net/http"
	"strings"
)

// Format is the response representation a caller expects.
type Format int

const (
	// FormatPage is a server-rendered page or redirect.
	FormatPage Format = iota
	// FormatData is the JSON envelope.
	FormatData
)

func (f Format) String() string {
	if f == FormatData {
		return "data"
	}
	return "page"
}

// Negotiate decides the response format of r. It is called once per
// request and the result is passed along explicitly.
//
// A request expects data when it targets the /api prefix, when it is an
// XMLHttpRequest that is not a PJAX navigation, or when the first media
// type it accepts is JSON.
func Negotiate(r *http.Request) Format {
	if p := r.URL.Path; p == "/api" || strings.HasPrefix(p, "/api/") {
		return FormatData
	}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" && r.Header.Get("X-PJAX") == "" {
		return FormatData
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return FormatPage
	}
	first := strings.TrimSpace(strings.SplitN(strings.SplitN(accept, ",", 2)[0], ";", 2)[0])
	first = strings.ToLower(first)
	if strings.Contains(first, "/json") || strings.HasSuffix(first, "+json") {
		return FormatData
	}
	return FormatPage
}
