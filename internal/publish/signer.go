package publish

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/DevelopmentCats/AppBinHub/internal/utils"
)

// CatalogSigner writes a detached armored signature beside the published
// catalog so consumers can verify the document they mirror.
type CatalogSigner struct {
	entity *openpgp.Entity
}

// NewCatalogSigner loads a GPG private key, armored or binary, decrypting it
// with the passphrase when one is set.
func NewCatalogSigner(keyPath, passphrase string) (*CatalogSigner, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("key path is empty")
	}

	keyFile, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer keyFile.Close()

	entityList, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		keyFile.Seek(0, 0)
		entityList, err = openpgp.ReadKeyRing(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
	}
	if len(entityList) == 0 {
		return nil, fmt.Errorf("no keys found in key file")
	}
	entity := entityList[0]

	if passphrase != "" {
		if entity.PrivateKey != nil && entity.PrivateKey.Encrypted {
			if err := entity.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
				return nil, fmt.Errorf("failed to decrypt private key: %w", err)
			}
		}
		for _, subkey := range entity.Subkeys {
			if subkey.PrivateKey != nil && subkey.PrivateKey.Encrypted {
				if err := subkey.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
					return nil, fmt.Errorf("failed to decrypt subkey: %w", err)
				}
			}
		}
	}

	return &CatalogSigner{entity: entity}, nil
}

// SignFile writes a detached armored signature for path at path + ".asc".
func (s *CatalogSigner) SignFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), nil); err != nil {
		return fmt.Errorf("sign %s: %w", path, err)
	}

	return utils.WriteFile(path+".asc", buf.Bytes(), 0644)
}
