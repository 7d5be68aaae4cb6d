// Package crypto seals small secrets, such as signing key seeds, under a
// password.
//
// A sealed secret carries its own KDF parameters:
//   - PBKDF2-HMAC-SHA256, 32-byte random salt, 210,000 iterations by default
//   - AES-256-GCM with a 12-byte random nonce prepended to the ciphertext
//   - caller-supplied associated data binding the secret to its context
//
// Use ClearBytes to zero passwords and plaintexts after use.
package crypto
