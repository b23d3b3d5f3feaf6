package crypt_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/stackkeeper/internal/crypt"
)

func newEncryptor() crypt.Encryptor {
	key, err := crypt.GenerateKey()
	Expect(err).NotTo(HaveOccurred())
	enc, err := crypt.NewAESGCM(key)
	Expect(err).NotTo(HaveOccurred())
	return enc
}

var _ = Describe("AESGCM", func() {
	It("round-trips a plaintext through the envelope", func() {
		enc := newEncryptor()
		envelope, err := enc.Encrypt("s3cret-value")
		Expect(err).NotTo(HaveOccurred())
		Expect(envelope).To(HavePrefix("enc:aes256gcm:"))
		Expect(envelope).To(HaveSuffix(":end"))
		Expect(crypt.IsEnvelope(envelope)).To(BeTrue())

		plain, err := enc.Decrypt(envelope)
		Expect(err).NotTo(HaveOccurred())
		Expect(plain).To(Equal("s3cret-value"))
	})

	It("produces distinct envelopes for the same plaintext", func() {
		enc := newEncryptor()
		a, err := enc.Encrypt("same")
		Expect(err).NotTo(HaveOccurred())
		b, err := enc.Encrypt("same")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).NotTo(Equal(b))
	})

	It("round-trips the empty string", func() {
		enc := newEncryptor()
		envelope, err := enc.Encrypt("")
		Expect(err).NotTo(HaveOccurred())
		plain, err := enc.Decrypt(envelope)
		Expect(err).NotTo(HaveOccurred())
		Expect(plain).To(BeEmpty())
	})

	It("rejects an unknown cipher id", func() {
		enc := newEncryptor()
		_, err := enc.Decrypt("enc:rot13:AAAA:end")
		var decErr *crypt.DecryptionError
		Expect(errors.As(err, &decErr)).To(BeTrue())
		Expect(decErr.Reason).To(ContainSubstring("rot13"))
	})

	It("rejects a malformed envelope", func() {
		enc := newEncryptor()
		_, err := enc.Decrypt("enc:aes256gcm:no-end")
		var decErr *crypt.DecryptionError
		Expect(errors.As(err, &decErr)).To(BeTrue())
		Expect(decErr.Reason).To(ContainSubstring("malformed"))
	})

	It("rejects a payload shorter than the nonce", func() {
		enc := newEncryptor()
		_, err := enc.Decrypt("enc:aes256gcm:AAAA:end")
		var decErr *crypt.DecryptionError
		Expect(errors.As(err, &decErr)).To(BeTrue())
	})

	It("rejects decryption with a different key", func() {
		first := newEncryptor()
		second := newEncryptor()
		envelope, err := first.Encrypt("cross-key")
		Expect(err).NotTo(HaveOccurred())
		_, err = second.Decrypt(envelope)
		var decErr *crypt.DecryptionError
		Expect(errors.As(err, &decErr)).To(BeTrue())
		Expect(decErr.Reason).To(ContainSubstring("wrong key"))
	})

	It("never leaks the plaintext through the error", func() {
		first := newEncryptor()
		envelope, err := first.Encrypt("top-secret-plaintext")
		Expect(err).NotTo(HaveOccurred())
		_, err = newEncryptor().Decrypt(envelope)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).NotTo(ContainSubstring("top-secret-plaintext"))
	})

	It("rejects key material of the wrong length", func() {
		_, err := crypt.NewAESGCM([]byte("short"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("DecryptAll", func() {
	It("replaces every envelope inside a larger text", func() {
		enc := newEncryptor()
		user, err := enc.Encrypt("alice")
		Expect(err).NotTo(HaveOccurred())
		pass, err := enc.Encrypt("wonderland")
		Expect(err).NotTo(HaveOccurred())

		text := "user: " + user + "\npass: " + pass + "\nplain: untouched\n"
		Expect(crypt.ContainsEnvelope(text)).To(BeTrue())

		out, err := crypt.DecryptAll(enc, text)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("user: alice\npass: wonderland\nplain: untouched\n"))
		Expect(crypt.ContainsEnvelope(out)).To(BeFalse())
	})

	It("leaves envelope-free text alone", func() {
		enc := newEncryptor()
		out, err := crypt.DecryptAll(enc, "services:\n  db:\n    image: postgres\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("services:\n  db:\n    image: postgres\n"))
	})

	It("fails the whole text on one undecryptable envelope", func() {
		enc := newEncryptor()
		good, err := enc.Encrypt("ok")
		Expect(err).NotTo(HaveOccurred())
		foreign, err := newEncryptor().Encrypt("nope")
		Expect(err).NotTo(HaveOccurred())

		_, err = crypt.DecryptAll(enc, good+"\n"+foreign)
		var decErr *crypt.DecryptionError
		Expect(errors.As(err, &decErr)).To(BeTrue())
	})
})

var _ = Describe("Key files", func() {
	It("round-trips key material through the hex file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "key")
		key, err := crypt.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		Expect(crypt.WriteKeyFile(path, key)).To(Succeed())

		loaded, err := crypt.LoadKeyFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(key))
	})

	It("writes the key readable only by the owner", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "key")
		key, err := crypt.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		Expect(crypt.WriteKeyFile(path, key)).To(Succeed())

		info, err := os.Stat(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
	})

	It("rejects a key file that is not hex", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "key")
		Expect(os.WriteFile(path, []byte("not hex at all\n"), 0o600)).To(Succeed())
		_, err := crypt.LoadKeyFile(path)
		Expect(err).To(HaveOccurred())
	})

	It("opens an encryptor straight from a key file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "key")
		key, err := crypt.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		Expect(crypt.WriteKeyFile(path, key)).To(Succeed())

		enc, err := crypt.OpenEncryptor(path)
		Expect(err).NotTo(HaveOccurred())
		envelope, err := enc.Encrypt("from file")
		Expect(err).NotTo(HaveOccurred())
		plain, err := enc.Decrypt(envelope)
		Expect(err).NotTo(HaveOccurred())
		Expect(plain).To(Equal("from file"))
	})
})

var _ = Describe("IsEnvelope", func() {
	It("accepts only a whole envelope", func() {
		Expect(crypt.IsEnvelope("enc:aes256gcm:QUJD:end")).To(BeTrue())
		Expect(crypt.IsEnvelope("prefix enc:aes256gcm:QUJD:end")).To(BeFalse())
		Expect(crypt.IsEnvelope("enc:aes256gcm:QUJD:end suffix")).To(BeFalse())
		Expect(crypt.IsEnvelope("plain")).To(BeFalse())
		Expect(crypt.IsEnvelope(strings.ToUpper("enc:") + "aes256gcm:QUJD:end")).To(BeFalse())
	})
})
