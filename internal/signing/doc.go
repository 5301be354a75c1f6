// Package signing provides the backends that embed or attach a signature to a
// packaged executable or library.
//
// Backend is the capability the signer retries against. The signtool backend
// drives the external Authenticode tool; the pkcs7 and openpgp backends sign
// natively and write a detached signature next to the file.
package signing
