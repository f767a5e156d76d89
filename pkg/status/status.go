// Package status holds the HTTP status-code catalog used to decide whether a
// response counts as a success.
package status

// Class groups status codes by their leading digit.
type Class int

const (
	Informational Class = iota + 1
	Success
	Redirection
	ClientError
	ServerError
)

// String returns the catalog section name of the class.
func (c Class) String() string {
	switch c {
	case Informational:
		return "INFORMATIONAL"
	case Success:
		return "SUCCESS"
	case Redirection:
		return "REDIRECTION"
	case ClientError:
		return "CLIENT_ERROR"
	case ServerError:
		return "SERVER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Status is a single catalog entry.
type Status struct {
	Code  int    `json:"code"`
	Name  string `json:"name"`
	Class Class  `json:"-"`
}

// Classes lists every section of the catalog in declaration order.
var Classes = []Class{Informational, Success, Redirection, ClientError, ServerError}

var (
	sections = map[Class][]Status{
		Informational: entries(Informational, []Status{
			{Code: 100, Name: "Continue"},
			{Code: 101, Name: "Switching Protocols"},
			{Code: 102, Name: "Processing (WebDAV)"},
		}),
		Success: entries(Success, []Status{
			{Code: 200, Name: "OK"},
			{Code: 201, Name: "Created"},
			{Code: 202, Name: "Accepted"},
			{Code: 203, Name: "Non-Authoritative Information"},
			{Code: 204, Name: "No Content"},
			{Code: 205, Name: "Reset Content"},
			{Code: 206, Name: "Partial Content"},
			{Code: 207, Name: "Multi-Status (WebDAV)"},
			{Code: 208, Name: "Already Reported (WebDAV)"},
			{Code: 226, Name: "IM Used"},
		}),
		Redirection: entries(Redirection, []Status{
			{Code: 300, Name: "Multiple Choices"},
			{Code: 301, Name: "Moved Permanently"},
			{Code: 302, Name: "Found"},
			{Code: 303, Name: "See Other"},
			{Code: 304, Name: "Not Modified"},
			{Code: 305, Name: "Use Proxy"},
			{Code: 306, Name: "Unused"},
			{Code: 307, Name: "Temporary Redirect"},
			{Code: 308, Name: "Permanent Redirect (experimental)"},
		}),
		ClientError: entries(ClientError, []Status{
			{Code: 400, Name: "Bad Request"},
			{Code: 401, Name: "Unauthorized"},
			{Code: 402, Name: "Payment Required"},
			{Code: 403, Name: "Forbidden"},
			{Code: 404, Name: "Not Found"},
			{Code: 405, Name: "Method Not Allowed"},
			{Code: 406, Name: "Not Acceptable"},
			{Code: 407, Name: "Proxy Authentication Required"},
			{Code: 408, Name: "Request Timeout"},
			{Code: 409, Name: "Conflict"},
			{Code: 410, Name: "Gone"},
			{Code: 411, Name: "Length Required"},
			{Code: 412, Name: "Precondition Failed"},
			{Code: 413, Name: "Request Entity Too Large"},
			{Code: 414, Name: "Request-URI Too Long"},
			{Code: 415, Name: "Unsupported Media Type"},
			{Code: 416, Name: "Requested Range Not Satisfiable"},
			{Code: 417, Name: "Expectation Failed"},
			{Code: 418, Name: "I'm teapot (RFC 2324)"},
			{Code: 420, Name: "Enhance Your Calm (Twitter)"},
			{Code: 422, Name: "Unprocessable Entity (WebDAV)"},
			{Code: 423, Name: "Locked (WebDAV)"},
			{Code: 424, Name: "Failed Dependency (WebDAV)"},
			{Code: 425, Name: "Reserved for WebDAV"},
			{Code: 426, Name: "Upgrade Required"},
			{Code: 428, Name: "Precondition Required"},
			{Code: 429, Name: "Too Many Requests"},
			{Code: 431, Name: "Request Header Fields Too Large"},
			{Code: 444, Name: "No Response (Nginx)"},
			{Code: 449, Name: "Retry With (Microsoft)"},
			{Code: 450, Name: "Blocked by Windows Parental Controls (Microsoft)"},
			{Code: 451, Name: "Unavailable For Legal Reason"},
			{Code: 499, Name: "Client Closed Request (Nginx)"},
		}),
		ServerError: entries(ServerError, []Status{
			{Code: 500, Name: "Internal Server Error"},
			{Code: 501, Name: "Not Implemented"},
			{Code: 502, Name: "Bad Gateway"},
			{Code: 503, Name: "Service unavailable"},
			{Code: 504, Name: "Gateway Timeout"},
			{Code: 505, Name: "HTTP Version Not Supported"},
			{Code: 506, Name: "Variant Also Negotiates (Experimental)"},
			{Code: 507, Name: "Insufficient Storage (WebDAV)"},
			{Code: 508, Name: "Loop Detected (WebDAV)"},
			{Code: 509, Name: "Bandwidth Limit Exceeded (Apache)"},
			{Code: 510, Name: "Not Extended"},
			{Code: 511, Name: "Network Authentication Required"},
			{Code: 598, Name: "Network read timeout error"},
			{Code: 599, Name: "Network connect timeout error"},
		}),
	}

	byCode = indexByCode(sections)
)

func entries(c Class, list []Status) []Status {
	for i := range list {
		list[i].Class = c
	}
	return list
}

func indexByCode(in map[Class][]Status) map[int]Status {
	idx := make(map[int]Status)
	for _, list := range in {
		for _, s := range list {
			idx[s.Code] = s
		}
	}
	return idx
}

// Statuses returns a copy of the entries declared for class c.
func Statuses(c Class) []Status {
	list := sections[c]
	out := make([]Status, len(list))
	copy(out, list)
	return out
}

// Codes projects a catalog section onto its numeric codes, in declaration order.
func Codes(c Class) []int {
	list := sections[c]
	out := make([]int, 0, len(list))
	for _, s := range list {
		out = append(out, s.Code)
	}
	return out
}

func InformationalCodes() []int { return Codes(Informational) }
func SuccessCodes() []int       { return Codes(Success) }
func RedirectionCodes() []int   { return Codes(Redirection) }
func ClientErrorCodes() []int   { return Codes(ClientError) }
func ServerErrorCodes() []int   { return Codes(ServerError) }

// Lookup returns the catalog entry for code.
func Lookup(code int) (Status, bool) {
	s, ok := byCode[code]
	return s, ok
}

// ClassOf reports the catalog class of code. Codes missing from the catalog are unknown.
func ClassOf(code int) (Class, bool) {
	s, ok := byCode[code]
	if !ok {
		return 0, false
	}
	return s.Class, true
}

// IsAcceptable reports whether a response with the given code is a success.
// Only informational and success entries qualify; redirects are failures.
func IsAcceptable(code int) bool {
	c, ok := ClassOf(code)
	return ok && (c == Informational || c == Success)
}
