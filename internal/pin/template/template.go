package template

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Context holds the named scalar values placeholders resolve against.
type Context map[string]string

// placeholderRE matches <name> and <params.name>.
var placeholderRE = regexp.MustCompile(`<(?:params\.)?([A-Za-z_][A-Za-z0-9_]*)>`)

// RenderString replaces every placeholder in s. Unknown names become "".
func RenderString(ctx Context, s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	return placeholderRE.ReplaceAllStringFunc(s, func(m string) string {
		sub := placeholderRE.FindStringSubmatch(m)
		if len(sub) < 2 {
			return ""
		}
		return ctx[sub[1]]
	})
}

// Render walks strings, slices and maps recursively and returns a structurally
// identical value with placeholders substituted. Other values pass through.
func Render(ctx Context, in any) any {
	switch v := in.(type) {
	case nil:
		return nil
	case string:
		return RenderString(ctx, v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Render(ctx, item)
		}
		return out
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = RenderString(ctx, item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = Render(ctx, item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, item := range v {
			out[k] = RenderString(ctx, item)
		}
		return out
	default:
		return in
	}
}

// RenderMap renders a map of arbitrary values into flat strings, as used for
// query parameters and headers.
func RenderMap(ctx Context, in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch rv := Render(ctx, v).(type) {
		case string:
			out[k] = rv
		case nil:
			out[k] = ""
		default:
			out[k] = stringify(rv)
		}
	}
	return out
}

// Inputs are the per-request values a Context is built from.
type Inputs struct {
	// Params is the merged static and inbound parameter set.
	Params map[string]string

	OTP          string
	SessionKey   string
	SessionToken string

	// TxnID and ClickID fall back to the same keys in Params, then to fresh ids.
	TxnID   string
	ClickID string
}

// BuildContext resolves every templating variable once for a request.
func BuildContext(in Inputs) Context {
	ctx := make(Context, len(in.Params)+16)
	for k, v := range in.Params {
		ctx[k] = v
	}
	for _, k := range []string{
		"msisdn", "ip", "user_ip", "ua", "cid", "cmpid", "offid",
		"param1", "param2", "param3", "param4", "anti_fraud_id",
	} {
		if _, ok := ctx[k]; !ok {
			ctx[k] = ""
		}
	}
	if ctx["user_ip"] == "" {
		ctx["user_ip"] = ctx["ip"]
	}
	ctx["ua_b64"] = base64.StdEncoding.EncodeToString([]byte(ctx["ua"]))

	ctx["txn_id"] = firstNonEmpty(in.TxnID, ctx["txn_id"], uuid.NewString())
	ctx["click_id"] = firstNonEmpty(in.ClickID, ctx["click_id"], uuid.NewString())

	if in.OTP != "" {
		ctx["otp"] = in.OTP
		ctx["pin"] = in.OTP
	}
	if in.SessionKey != "" {
		ctx["session_key"] = in.SessionKey
	}
	if in.SessionToken != "" {
		ctx["session_token"] = in.SessionToken
	}
	return ctx
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
