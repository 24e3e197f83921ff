// Package credential reads and stores the Gemini API key.
//
// Three backends are available:
//
//	env      read-only, the key comes from an environment variable (default GEMINI_API_KEY)
//	file     a 0600 file holding only the key
//	keyring  the OS keyring (macOS Keychain, Secret Service, Windows Credential Manager)
//
// A missing key is never an error: Read returns "" and the relay reports the
// misconfiguration per request. Writing "" clears the stored key.
//
//	store := credential.NewKeyringStore(credential.DefaultKeyringService, credential.DefaultKeyringUser)
//	if err := store.Write(ctx, key); err != nil {
//		return err
//	}
package credential
