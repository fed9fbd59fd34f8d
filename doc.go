// Package pbemarker toggles password-based encryption of marked values in
// text content such as YAML and properties files.
//
// # Overview
//
// Values to protect are wrapped in markers. Encrypting rewrites every
// DEC(plaintext) into ENC(ciphertext); decrypting does the reverse:
//
//	db.user: admin
//	db.password: DEC(secret)    <->    db.password: ENC(nU4pQ1yR...)
//
// Text outside the markers is copied unchanged. The package does not parse
// the surrounding syntax, so markers are found anywhere, including comments.
//
// # Basic Usage
//
//	catalog, recommended := pbemarker.ListAlgorithmsWithRecommendation()
//	fmt.Println(catalog)
//
//	out, err := pbemarker.Transform(content, "my-password", recommended, pbemarker.Encrypt)
//	if err != nil {
//	    // nothing was changed; out is empty
//	}
//
// # Algorithms
//
// Algorithms are supplied by a Registry of Providers. The built-in provider
// implements the classic PBE names with the StandardPBEStringEncryptor
// payload layout, base64(salt || iv || ciphertext) with 1000 iterations by
// default:
//   - PBEWithMD5AndDES, PBEWithMD5AndTripleDES (PKCS#5 v1.5 style)
//   - PBEWithSHA1AndDESede, PBEWithSHA1AndRC2_40/128, PBEWithSHA1AndRC4_40/128 (PKCS#12)
//   - PBEWithHmacSHA{1,224,256,384,512}AndAES_{128,256} (PBKDF2, random IV stored)
//   - PBEWithArgon2idAndAES_256GCM, PBEWithArgon2idAndChaCha20Poly1305 (authenticated)
//
// The catalog returned by ListAlgorithms is every discovered PBE cipher
// merged with a fixed fallback list, so it is never empty. Recommend prefers
// AES, then SHA256, then SHA1 names.
//
// # Matching
//
// By default a payload is matched greedily to the last ')' on its line:
//
//	DEC(a)text DEC(b)
//
// is a single marker whose payload is "a)text DEC(b". Config.MatchMode set to
// MatchShortest ends each payload at the first ')' instead.
//
// # Errors
//
// An unknown algorithm fails with ErrAlgorithmUnavailable. A payload that does
// not decrypt (bad base64, bad padding, wrong password, failed tag check)
// fails with ErrDecryptionFailed, and the returned *DecryptionError carries
// the byte offset of the marker. Either way the whole call fails and no
// partial output is returned.
//
// # Files
//
// FileToggler applies the same rewrites to yaml, yml and properties files
// on any absfs.FileSystem. A file is replaced through a temporary file and a
// rename, keeping its permissions. A YAML file is only rewritten when both
// its current and its new content parse.
//
// # Security Considerations
//
// The PBES1 and PKCS#12 algorithms are offered for compatibility with
// existing encrypted files. They are not authenticated and use weak ciphers.
// No key material is cached; every payload derives its own key from a fresh
// salt.
package pbemarker
