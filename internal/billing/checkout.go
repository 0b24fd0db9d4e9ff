package billing

import "net/url"

// LemonCheckoutURL builds a Lemon Squeezy checkout link that carries the
// user id back in webhook custom data. It returns "" when variantID is empty.
func LemonCheckoutURL(store, variantID, email, userID string) string {
	if variantID == "" {
		return ""
	}
	if store == "" {
		store = "testispark"
	}
	u := url.URL{
		Scheme: "https",
		Host:   store + ".lemonsqueezy.com",
		Path:   "/checkout/buy/" + variantID,
	}
	q := url.Values{}
	q.Set("checkout[email]", email)
	q.Set("checkout[custom][user_id]", userID)
	q.Set("embed", "1")
	q.Set("media", "0")
	q.Set("discount", "0")
	u.RawQuery = q.Encode()
	return u.String()
}
