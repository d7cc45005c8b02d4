// Package secrets encrypts and decrypts stored site credentials.
//
// Tokens are NaCl secretbox ciphertexts prefixed with their random nonce. The
// box key is derived from a passphrase read from configuration, the
// REELPOST_ENCRYPTION_KEY environment variable, or the OS keyring.
package secrets
