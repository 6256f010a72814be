// internal/wallet/session.go
package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"

	"github.com/xefers/xefers-backend/internal/chain"
	appErrors "github.com/xefers/xefers-backend/internal/errors"
)

type SessionInterface interface {
	Connect() (string, error)
	CurrentAccounts() []string
	EnsureNetwork(ctx context.Context, target chain.Info) error
}

// Session holds the signing key and the active account for the process
// lifetime. The active account is written only by Connect; everything else
// reads it.
type Session struct {
	mu      sync.Mutex
	key     *ecdsa.PrivateKey
	account string
	client  *w3.Client
	chainID int64
	file    string
}

// sessionRecord is the lightweight session-scoped persistence that lets a
// restart restore the active account. It never contains key material.
type sessionRecord struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
}

func NewSession() *Session {
	file := os.Getenv("XEFERS_SESSION_FILE")
	if file == "" {
		file = filepath.Join(os.TempDir(), "xefers-session.json")
	}
	return &Session{file: file}
}

// Connect loads the signing key from XEFERS_PRIVATE_KEY and binds the
// derived address as the active account.
func (s *Session) Connect() (string, error) {
	hexKey := os.Getenv("XEFERS_PRIVATE_KEY")
	if hexKey == "" {
		return "", appErrors.NewNoWalletProvider()
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return "", appErrors.NewUserRejected("invalid signing key: " + err.Error())
	}
	account := crypto.PubkeyToAddress(key.PublicKey).Hex()

	s.mu.Lock()
	s.key = key
	s.account = account
	s.mu.Unlock()

	if err := s.saveRecord(account); err != nil {
		log.Println("⚠️ failed to persist session record:", err)
	}
	return account, nil
}

// CurrentAccounts is the non-interactive probe: it never prompts for a key
// and falls back to the persisted session record when nothing is bound.
func (s *Session) CurrentAccounts() []string {
	s.mu.Lock()
	account := s.account
	s.mu.Unlock()

	if account != "" {
		return []string{account}
	}

	rec, err := s.loadRecord()
	if err != nil || rec.Address == "" {
		return nil
	}
	return []string{rec.Address}
}

// EnsureNetwork verifies the session is talking to the target chain,
// re-dialing its RPC when the active connection points elsewhere. A
// mismatch that cannot be resolved reports WrongNetwork naming both sides.
func (s *Session) EnsureNetwork(ctx context.Context, target chain.Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil && s.chainID == target.ID {
		return nil
	}

	client, err := w3.Dial(target.RPCURL)
	if err != nil {
		return appErrors.NewWrongNetwork(s.activeNameLocked(), describeChain(target))
	}

	var reported uint64
	if err := client.CallCtx(ctx, eth.ChainID().Returns(&reported)); err != nil {
		client.Close()
		return appErrors.NewWrongNetwork(s.activeNameLocked(), describeChain(target))
	}
	if int64(reported) != target.ID {
		client.Close()
		active := chain.ToNetworkHandle(int64(reported))
		if info, ok := chain.Lookup(int64(reported)); ok {
			active = describeChain(info)
		}
		return appErrors.NewWrongNetwork(active, describeChain(target))
	}

	if s.client != nil {
		s.client.Close()
	}
	s.client = client
	s.chainID = target.ID
	return nil
}

// Client returns the active RPC client and its chain id.
func (s *Session) Client() (*w3.Client, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, 0, appErrors.NewWrongNetwork("not connected", describeChain(chain.Default()))
	}
	return s.client, s.chainID, nil
}

// Key returns the bound signing key.
func (s *Session) Key() (*ecdsa.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return nil, appErrors.NewNoWalletProvider()
	}
	return s.key, nil
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

func (s *Session) activeNameLocked() string {
	if s.chainID == 0 {
		return "not connected"
	}
	if info, ok := chain.Lookup(s.chainID); ok {
		return describeChain(info)
	}
	return chain.ToNetworkHandle(s.chainID)
}

func describeChain(info chain.Info) string {
	return info.Name + " (" + chain.ToNetworkHandle(info.ID) + ")"
}

func (s *Session) saveRecord(address string) error {
	rec := sessionRecord{
		ID:        uuid.NewString(),
		Address:   address,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(s.file, data, 0o600)
}

func (s *Session) loadRecord() (sessionRecord, error) {
	var rec sessionRecord
	data, err := os.ReadFile(s.file)
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(data, &rec)
	return rec, err
}

var _ SessionInterface = (*Session)(nil)
