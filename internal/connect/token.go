package connect

// OAuthToken holds a token issued by a service provider. Secret is set for
// OAuth1 tokens only; an OAuth2 bearer token carries the value alone.
type OAuthToken struct {
	Value  string
	Secret string
}

// AccessGrant is the result of an OAuth2 authorization-code exchange or a
// token refresh. ExpireTime is epoch milliseconds; zero means the access
// token does not expire.
type AccessGrant struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpireTime   int64
}
