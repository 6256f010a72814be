// internal/contract/gateway.go
package contract

import (
	"context"
	_ "embed"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"

	appErrors "github.com/xefers/xefers-backend/internal/errors"
	"github.com/xefers/xefers-backend/internal/model"
	"github.com/xefers/xefers-backend/internal/wallet"
)

const (
	DeployGasLimit uint64 = 1_500_000
	ReferGasLimit  uint64 = 200_000
	FundGasLimit   uint64 = 60_000

	receiptPollInterval = 2 * time.Second
)

// Compiled XefersLink artifact (solc output).
//
//go:embed XefersLink.bin
var bytecodeHex string

var (
	funcGetMetadata = w3.MustNewFunc(
		"getMetadata()", "string,string,address,uint256",
	)
	funcGetTitle = w3.MustNewFunc("getTitle()", "string")
	funcRefer    = w3.MustNewFunc("refer()", "")

	// constructor(string title, uint256 reward, string redirectUrl);
	// packed by hand since w3 funcs prepend a selector.
	ctorArgs abi.Arguments
)

func init() {
	stringT, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	uint256T, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	ctorArgs = abi.Arguments{
		{Type: stringT}, {Type: uint256T}, {Type: stringT},
	}
}

type GatewayInterface interface {
	Deploy(ctx context.Context, title string, reward *big.Int, redirectURL string) (address, txHash string, err error)
	GetMetadata(ctx context.Context, contractAddress string) (*model.LinkMetadata, error)
	GetTitle(ctx context.Context, contractAddress string) (string, error)
	Refer(ctx context.Context, contractAddress string) (txHash string, err error)
	Fund(ctx context.Context, contractAddress string, amount *big.Int) (txHash string, err error)
}

// Gateway invokes the referral contract through the wallet session's RPC
// connection. It holds no state of its own beyond gas policy.
type Gateway struct {
	Session   *wallet.Session
	GasFeeCap *big.Int
	GasTipCap *big.Int
}

func NewGateway(session *wallet.Session) *Gateway {
	return &Gateway{
		Session:   session,
		GasFeeCap: w3.I("300 gwei"),
		GasTipCap: w3.I("1 gwei"),
	}
}

func Bytecode() ([]byte, error) {
	return hex.DecodeString(strings.TrimSpace(strings.TrimPrefix(bytecodeHex, "0x")))
}

// Deploy creates a new referral contract and waits for its receipt. The
// contract address is derived from (sender, nonce) before submission.
func (g *Gateway) Deploy(ctx context.Context, title string, reward *big.Int, redirectURL string) (string, string, error) {
	client, chainID, err := g.Session.Client()
	if err != nil {
		return "", "", err
	}
	key, err := g.Session.Key()
	if err != nil {
		return "", "", err
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	bytecode, err := Bytecode()
	if err != nil {
		return "", "", appErrors.NewContractWrite("decode contract artifact: " + err.Error())
	}
	packed, err := ctorArgs.Pack(title, reward, redirectURL)
	if err != nil {
		return "", "", appErrors.NewContractWrite("encode constructor: " + err.Error())
	}

	var nonce uint64
	if err := client.CallCtx(ctx, eth.Nonce(from, nil).Returns(&nonce)); err != nil {
		return "", "", appErrors.NewContractWrite("get nonce: " + err.Error())
	}
	contractAddr := crypto.CreateAddress(from, nonce)

	tx := types.NewTx(&types.DynamicFeeTx{
		Nonce:     nonce,
		GasFeeCap: g.GasFeeCap,
		GasTipCap: g.GasTipCap,
		Gas:       DeployGasLimit,
		Data:      append(bytecode, packed...),
	})
	txHash, err := g.sendTx(ctx, client, chainID, tx)
	if err != nil {
		return "", "", err
	}

	receipt, err := g.waitForReceipt(ctx, client, txHash)
	if err != nil {
		return "", "", err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", "", appErrors.NewContractWrite("deployment transaction reverted")
	}

	return contractAddr.Hex(), txHash.Hex(), nil
}

// GetMetadata reads (title, redirectUrl, owner, reward) from the contract.
func (g *Gateway) GetMetadata(ctx context.Context, contractAddress string) (*model.LinkMetadata, error) {
	client, _, err := g.Session.Client()
	if err != nil {
		return nil, err
	}
	addr, err := parseAddress(contractAddress)
	if err != nil {
		return nil, appErrors.NewContractRead(err.Error())
	}

	var (
		title    string
		redirect string
		owner    common.Address
		reward   big.Int
	)
	err = client.CallCtx(ctx,
		eth.CallFunc(addr, funcGetMetadata).Returns(&title, &redirect, &owner, &reward),
	)
	if err != nil {
		return nil, appErrors.NewContractRead(err.Error())
	}

	return &model.LinkMetadata{
		Title:       title,
		RedirectURL: redirect,
		Owner:       owner.Hex(),
		Reward:      &reward,
	}, nil
}

// GetTitle is the cheap title-only read.
func (g *Gateway) GetTitle(ctx context.Context, contractAddress string) (string, error) {
	client, _, err := g.Session.Client()
	if err != nil {
		return "", err
	}
	addr, err := parseAddress(contractAddress)
	if err != nil {
		return "", appErrors.NewContractRead(err.Error())
	}

	var title string
	if err := client.CallCtx(ctx, eth.CallFunc(addr, funcGetTitle).Returns(&title)); err != nil {
		return "", appErrors.NewContractRead(err.Error())
	}
	return title, nil
}

// Refer submits the redemption write and waits for its receipt. The
// contract enforces one redemption per address; a repeat attempt reverts
// with its "already referred" message, which callers classify.
func (g *Gateway) Refer(ctx context.Context, contractAddress string) (string, error) {
	client, chainID, err := g.Session.Client()
	if err != nil {
		return "", err
	}
	key, err := g.Session.Key()
	if err != nil {
		return "", err
	}
	addr, err := parseAddress(contractAddress)
	if err != nil {
		return "", appErrors.NewContractWrite(err.Error())
	}

	calldata, err := funcRefer.EncodeArgs()
	if err != nil {
		return "", appErrors.NewContractWrite("encode refer: " + err.Error())
	}

	from := crypto.PubkeyToAddress(key.PublicKey)
	var nonce uint64
	if err := client.CallCtx(ctx, eth.Nonce(from, nil).Returns(&nonce)); err != nil {
		return "", appErrors.NewContractWrite("get nonce: " + err.Error())
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		Nonce:     nonce,
		To:        &addr,
		GasFeeCap: g.GasFeeCap,
		GasTipCap: g.GasTipCap,
		Gas:       ReferGasLimit,
		Data:      calldata,
	})
	txHash, err := g.sendTx(ctx, client, chainID, tx)
	if err != nil {
		return "", err
	}

	receipt, err := g.waitForReceipt(ctx, client, txHash)
	if err != nil {
		return "", err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", appErrors.NewContractWrite("refer transaction reverted")
	}
	return txHash.Hex(), nil
}

// Fund tops up the contract's reward pool with a native-value transfer.
func (g *Gateway) Fund(ctx context.Context, contractAddress string, amount *big.Int) (string, error) {
	client, chainID, err := g.Session.Client()
	if err != nil {
		return "", err
	}
	key, err := g.Session.Key()
	if err != nil {
		return "", err
	}
	addr, err := parseAddress(contractAddress)
	if err != nil {
		return "", appErrors.NewContractWrite(err.Error())
	}
	if amount == nil || amount.Sign() <= 0 {
		return "", appErrors.NewContractWrite("fund amount must be positive")
	}

	from := crypto.PubkeyToAddress(key.PublicKey)

	var balance big.Int
	if err := client.CallCtx(ctx, eth.Balance(from, nil).Returns(&balance)); err != nil {
		return "", appErrors.NewContractWrite("get balance: " + err.Error())
	}
	if balance.Cmp(amount) < 0 {
		return "", appErrors.NewContractWrite("insufficient funds for this transaction")
	}

	var nonce uint64
	if err := client.CallCtx(ctx, eth.Nonce(from, nil).Returns(&nonce)); err != nil {
		return "", appErrors.NewContractWrite("get nonce: " + err.Error())
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		Nonce:     nonce,
		To:        &addr,
		Value:     amount,
		GasFeeCap: g.GasFeeCap,
		GasTipCap: g.GasTipCap,
		Gas:       FundGasLimit,
	})
	txHash, err := g.sendTx(ctx, client, chainID, tx)
	if err != nil {
		return "", err
	}

	receipt, err := g.waitForReceipt(ctx, client, txHash)
	if err != nil {
		return "", err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", appErrors.NewContractWrite("fund transaction reverted")
	}
	return txHash.Hex(), nil
}

func (g *Gateway) sendTx(ctx context.Context, client *w3.Client, chainID int64, tx *types.Transaction) (common.Hash, error) {
	privKey, err := g.Session.Key()
	if err != nil {
		return common.Hash{}, err
	}

	signer := types.NewLondonSigner(big.NewInt(chainID))
	signedTx, err := types.SignTx(tx, signer, privKey)
	if err != nil {
		return common.Hash{}, appErrors.NewContractWrite("sign tx: " + err.Error())
	}
	if err := client.CallCtx(ctx, eth.SendTx(signedTx).Returns(nil)); err != nil {
		return common.Hash{}, appErrors.NewContractWrite("send tx: " + err.Error())
	}
	return signedTx.Hash(), nil
}

func (g *Gateway) waitForReceipt(ctx context.Context, client *w3.Client, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		var receipt types.Receipt
		if err := client.CallCtx(ctx, eth.TxReceipt(txHash).Returns(&receipt)); err == nil {
			return &receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, appErrors.NewContractWrite("wait for receipt: " + ctx.Err().Error())
		case <-ticker.C:
		}
	}
}

func parseAddress(contractAddress string) (common.Address, error) {
	if !common.IsHexAddress(contractAddress) {
		return common.Address{}, fmt.Errorf("invalid contract address %q", contractAddress)
	}
	return common.HexToAddress(contractAddress), nil
}

var _ GatewayInterface = (*Gateway)(nil)
