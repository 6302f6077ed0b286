package connect

// ConnectionKey identifies one provider account. Together with the local user
// id it uniquely identifies a persisted connection.
type ConnectionKey struct {
	ProviderID     string
	ProviderUserID string
}

// ConnectionData is the full persistable snapshot of a connection. It is the
// DTO exchanged between a Connection and its repository; token fields are
// plaintext here and encrypted by the repository on write.
type ConnectionData struct {
	ProviderID     string
	ProviderUserID string
	DisplayName    string
	ProfileURL     string
	ImageURL       string
	AccessToken    string
	Secret         string
	RefreshToken   string
	ExpireTime     int64 // epoch millis; zero means non-expiring
}

// Key returns the provider identity portion of the snapshot.
func (d ConnectionData) Key() ConnectionKey {
	return ConnectionKey{ProviderID: d.ProviderID, ProviderUserID: d.ProviderUserID}
}

// UserProfile carries the display metadata a provider reports for the
// authenticated account. Factories fetch it once when a connection is
// created from a fresh handshake.
type UserProfile struct {
	ProviderUserID string
	DisplayName    string
	ProfileURL     string
	ImageURL       string
}
