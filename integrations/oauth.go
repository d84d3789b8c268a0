package integrations

import "fmt"

// BuildAuthHeader returns the Authorization header value Trello expects.
// Values are interpolated as-is.
func BuildAuthHeader(appKey, token string) string {
	return fmt.Sprintf(`OAuth oauth_consumer_key="%s", oauth_token="%s"`, appKey, token)
}
