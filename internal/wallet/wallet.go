// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Role tags how a wallet participated in the token launch. The creator
// wallet is the one that deployed the mint; bundle wallets bought in the
// launch bundle; holders came later.
type Role string

const (
	RoleCreator Role = "creator"
	RoleBundle  Role = "bundle"
	RoleHolder  Role = "holder"
)

// ParseRole normalizes a CSV role cell. Empty defaults to holder.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCreator:
		return RoleCreator, nil
	case RoleBundle:
		return RoleBundle, nil
	case RoleHolder, "":
		return RoleHolder, nil
	default:
		return "", fmt.Errorf("unknown wallet role: %q", s)
	}
}

// Wallet is one independently keyed Solana wallet taking part in a run.
type Wallet struct {
	Name       string
	Role       Role
	Eligible   bool
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey
	ATACache   map[string]solana.PublicKey
}

// New builds a wallet from a base58-encoded 64-byte private key.
func New(name string, role Role, privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	privateKey := solana.PrivateKey(privateKeyBytes)
	return &Wallet{
		Name:       name,
		Role:       role,
		Eligible:   true,
		PrivateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
		ATACache:   make(map[string]solana.PublicKey),
	}, nil
}

// Load reads wallets from a CSV file with a header row and columns
// [name, role, private_key] plus an optional [eligible] column. Rows that
// fail to parse are skipped. Order in the file is preserved; it decides
// launch staggering.
func Load(path string) ([]*Wallet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallets file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read wallets CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("wallets CSV is empty or missing data rows")
	}

	wallets := make([]*Wallet, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 3 {
			continue
		}
		role, err := ParseRole(record[1])
		if err != nil {
			continue
		}
		w, err := New(strings.TrimSpace(record[0]), role, strings.TrimSpace(record[2]))
		if err != nil {
			continue
		}
		if len(record) >= 4 && strings.TrimSpace(record[3]) != "" {
			eligible, err := strconv.ParseBool(strings.TrimSpace(record[3]))
			if err != nil {
				continue
			}
			w.Eligible = eligible
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// SignTransaction signs tx with the wallet's private key.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey) {
			return &w.PrivateKey
		}
		return nil
	})
	return err
}

// GetATA returns the wallet's associated token account address for mint,
// derived once and cached for the rest of the run.
func (w *Wallet) GetATA(mint solana.PublicKey) (solana.PublicKey, error) {
	mintStr := mint.String()
	if ata, ok := w.ATACache[mintStr]; ok {
		return ata, nil
	}
	ata, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	w.ATACache[mintStr] = ata
	return ata, nil
}

// String returns the wallet's public key.
func (w *Wallet) String() string {
	return w.PublicKey.String()
}
