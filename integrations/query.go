package integrations

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// EncodeQuery builds a percent-encoded query string. Nil values are kept as
// empty parameters rather than dropped.
func EncodeQuery(params map[string]any) string {
	values := url.Values{}
	for key, value := range params {
		values.Set(key, queryValue(value))
	}
	return values.Encode()
}

func queryValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case *bool:
		if v == nil {
			return ""
		}
		return strconv.FormatBool(*v)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = queryValue(item)
		}
		return strings.Join(parts, ",")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return cast.ToString(value)
}
