package cli

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var keysDir string

func init() {
	rootCommand.AddCommand(keygenCommand)

	keygenCommand.Flags().StringVar(&keysDir, "dir", "zarf/keys", "Directory to write the key pair into.")
}

var keygenCommand = &cobra.Command{
	Use:   "keygen",
	Short: "generates an rsa key pair for token signing",
	Long: `Generate an rsa private key pem file named after a fresh kid.

Examples:
  admin keygen --dir=/etc/rsa-keys`,
	RunE: func(cmd *cobra.Command, args []string) error {
		private, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return fmt.Errorf("generateKey: %w", err)
		}

		if err := os.MkdirAll(keysDir, 0o755); err != nil {
			return fmt.Errorf("mkdirAll: %w", err)
		}

		kid := uuid.NewString()
		path := filepath.Join(keysDir, kid+".pem")

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			return fmt.Errorf("openFile: %w", err)
		}
		defer file.Close()

		block := pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(private),
		}

		if err := pem.Encode(file, &block); err != nil {
			return fmt.Errorf("encode: %w", err)
		}

		fmt.Printf("wrote %s\n", path)
		fmt.Printf("kid: %s\n", kid)
		return nil
	},
}
