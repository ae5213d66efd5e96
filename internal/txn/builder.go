// Package txn builds programmable transaction descriptions: ordered
// command lists (merge, split, move call) over object references and pure
// integer arguments. The description is plain data; signing and wire
// encoding happen in the wallet bridge that consumes it.
package txn

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"staychain/internal/domain"
)

// ClockObjectID is the well-known shared clock object every time-dependent
// entry point takes as its last argument.
const ClockObjectID = "0x0000000000000000000000000000000000000000000000000000000000000006"

// Argument kinds on the wire.
const (
	ArgObject  = "object"
	ArgPureU64 = "pure_u64"
	ArgResult  = "result" // output of an earlier command in the same tx
)

// Arg is a single argument to a command.
type Arg struct {
	Kind    string `json:"kind"`
	Object  string `json:"object,omitempty"`
	U64     uint64 `json:"u64,omitempty"`
	Command int    `json:"command,omitempty"` // index of producing command for ArgResult
}

// Command kinds.
const (
	CmdMergeCoins = "merge_coins"
	CmdSplitCoins = "split_coins"
	CmdMoveCall   = "move_call"
)

// Command is one step of the atomic transaction.
type Command struct {
	Kind    string `json:"kind"`
	Target  string `json:"target,omitempty"` // package::module::function for move calls
	Args    []Arg  `json:"args,omitempty"`
	Coin    *Arg   `json:"coin,omitempty"`    // merge target / split source
	Sources []Arg  `json:"sources,omitempty"` // merge sources
	Amounts []Arg  `json:"amounts,omitempty"` // split amounts
}

// Transaction is an ordered, atomic command list. It either lands in full
// or not at all; no command's effect is visible unless the whole
// transaction executes.
type Transaction struct {
	Sender   string    `json:"sender"`
	Commands []Command `json:"commands"`
}

// Submitter signs and executes a transaction through the external wallet
// integration, suspending until the wallet reports an outcome.
type Submitter interface {
	SignAndExecute(ctx context.Context, tx *Transaction) (domain.Receipt, error)
}

// New starts an empty transaction for sender.
func New(sender string) *Transaction {
	return &Transaction{Sender: sender}
}

// Object declares a reference to an owned or shared ledger object.
func Object(id string) Arg { return Arg{Kind: ArgObject, Object: id} }

// PureU64 declares an unsigned integer argument.
func PureU64(v uint64) Arg { return Arg{Kind: ArgPureU64, U64: v} }

// Result references the first output of command i.
func Result(i int) Arg { return Arg{Kind: ArgResult, Command: i} }

// MergeCoins folds every source coin's value into target. The source ids
// cease to exist once the transaction lands.
func (t *Transaction) MergeCoins(target Arg, sources []Arg) {
	t.Commands = append(t.Commands, Command{
		Kind:    CmdMergeCoins,
		Coin:    &target,
		Sources: sources,
	})
}

// SplitCoins carves the given amounts off coin into new coins, leaving the
// remainder with the original. Returns an Arg referencing the first new
// coin.
func (t *Transaction) SplitCoins(coin Arg, amounts []Arg) Arg {
	t.Commands = append(t.Commands, Command{
		Kind:    CmdSplitCoins,
		Coin:    &coin,
		Amounts: amounts,
	})
	return Result(len(t.Commands) - 1)
}

// MoveCall invokes a published entry point. Target must be of the form
// package::module::function.
func (t *Transaction) MoveCall(target string, args ...Arg) error {
	if !validTarget(target) {
		return fmt.Errorf("txn: malformed move call target %q", target)
	}
	t.Commands = append(t.Commands, Command{
		Kind:   CmdMoveCall,
		Target: target,
		Args:   args,
	})
	return nil
}

var targetRe = regexp.MustCompile(`^0x[0-9a-fA-F]+::[A-Za-z_][A-Za-z0-9_]*::[A-Za-z_][A-Za-z0-9_]*$`)

func validTarget(s string) bool {
	if strings.Count(s, "::") != 2 {
		return false
	}
	return targetRe.MatchString(s)
}
