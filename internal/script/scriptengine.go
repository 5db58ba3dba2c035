package script

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"go-bitcoin/internal/encoding"
	"math/big"

	"golang.org/x/crypto/ripemd160"
)

// CheckSig verifies a single DER signature against a SEC pubkey for
// sighash z. scriptCode is the subscript CHECKSIG/CHECKMULTISIG ran
// against - the executed script from the last OP_CODESEPARATOR (or the
// start) to the end, which a verifier that recomputes its own sighash
// needs to reproduce it correctly. The VM never constructs a CheckSig
// itself - it only calls whatever is wired in via WithCheckSig, so
// internal/script has no dependency on any particular signature scheme
// or its key formats.
type CheckSig func(z *big.Int, derSig, pubkey, scriptCode []byte) bool

// Script op codes.
const (
	OP_0         byte = 0x00
	OP_PUSHDATA1 byte = 0x4c
	OP_PUSHDATA2 byte = 0x4d
	OP_PUSHDATA4 byte = 0x4e
	OP_1NEGATE   byte = 0x4f
	OP_1         byte = 0x51
	OP_2         byte = 0x52
	OP_3         byte = 0x53
	OP_4         byte = 0x54
	OP_5         byte = 0x55
	OP_6         byte = 0x56
	OP_7         byte = 0x57
	OP_8         byte = 0x58
	OP_9         byte = 0x59
	OP_10        byte = 0x5a
	OP_11        byte = 0x5b
	OP_12        byte = 0x5c
	OP_13        byte = 0x5d
	OP_14        byte = 0x5e
	OP_15        byte = 0x5f
	OP_16        byte = 0x60

	// flow control
	OP_NOP    byte = 0x61
	OP_IF     byte = 0x63
	OP_NOTIF  byte = 0x64
	OP_ELSE   byte = 0x67
	OP_ENDIF  byte = 0x68
	OP_VERIFY byte = 0x69
	OP_RETURN byte = 0x6a

	// stack operations
	OP_TOALSTACK    byte = 0x6b
	OP_FROMALTSTACK byte = 0x6c
	OP_2DROP        byte = 0x6d
	OP_2DUP         byte = 0x6e
	OP_3DUP         byte = 0x6f
	OP_2ROT         byte = 0x71
	OP_2SWAP        byte = 0x72
	OP_IFDUP        byte = 0x73
	OP_DEPTH        byte = 0x74
	OP_DROP         byte = 0x75
	OP_DUP          byte = 0x76
	OP_NIP          byte = 0x77
	OP_OVER         byte = 0x78
	OP_PICK         byte = 0x79
	OP_ROLL         byte = 0x7a
	OP_ROT          byte = 0x7b
	OP_SWAP         byte = 0x7c
	OP_TUCK         byte = 0x7d
	OP_SIZE         byte = 0x82

	// comparison
	OP_EQUAL       byte = 0x87
	OP_EQUALVERIFY byte = 0x88

	// arithmetic
	OP_1ADD               byte = 0x8b
	OP_1SUB               byte = 0x8c
	OP_NEGATE             byte = 0x8f
	OP_ABS                byte = 0x90
	OP_NOT                byte = 0x91
	OP_0NOTEQUAL          byte = 0x92
	OP_ADD                byte = 0x93
	OP_SUB                byte = 0x94
	OP_MUL                byte = 0x95 // disabled
	OP_DIV                byte = 0x96 // disabled
	OP_MOD                byte = 0x97 // disabled
	OP_LSHIFT             byte = 0x98 // disabled
	OP_RSHIFT             byte = 0x99 // disabled
	OP_BOOLAND            byte = 0x9a
	OP_BOOLOR             byte = 0x9b
	OP_NUMEQUAL           byte = 0x9c
	OP_NUMEQUALVERIFY     byte = 0x9d
	OP_NUMNOTEQUAL        byte = 0x9e
	OP_LESSTHAN           byte = 0x9f
	OP_GREATERTHAN        byte = 0xa0
	OP_LESSTHANOREQUAL    byte = 0xa1
	OP_GREATERTHANOREQUAL byte = 0xa2
	OP_MIN                byte = 0xa3
	OP_MAX                byte = 0xa4
	OP_WITHIN             byte = 0xa5

	// crypto
	OP_RIPEMD160           byte = 0xa6
	OP_SHA1                byte = 0xa7
	OP_SHA256              byte = 0xa8
	OP_HASH160             byte = 0xa9
	OP_HASH256             byte = 0xaa
	OP_CODESEPARATOR       byte = 0xab
	OP_CHECKSIG            byte = 0xac
	OP_CHECKSIGVERIFY      byte = 0xad
	OP_CHECKMULTISIG       byte = 0xae
	OP_CHECKMULTISIGVERIFY byte = 0xaf

	// reserved no-ops - must succeed without touching the stack
	OP_NOP1  byte = 0xb0
	OP_NOP4  byte = 0xb3
	OP_NOP5  byte = 0xb4
	OP_NOP6  byte = 0xb5
	OP_NOP7  byte = 0xb6
	OP_NOP8  byte = 0xb7
	OP_NOP9  byte = 0xb8
	OP_NOP10 byte = 0xb9

	// locktime
	OP_CHECKLOCKTIMEVERIFY byte = 0xb1
	OP_CHECKSEQUENCEVERIFY byte = 0xb2
)

// ScriptEngine executes a linked ScriptElement graph built from a
// Script's CommandStack. Conditionals are resolved once at link time
// (see element.go), so IF/NOTIF/ELSE/ENDIF dispatch is a pointer follow
// rather than a re-scan for the matching branch boundary on every run.
type ScriptEngine struct {
	stack    []ScriptCommand
	altstack []ScriptCommand
	commands []ScriptCommand
	z        []byte
	witness  [][]byte

	// BIP 65/112 context
	locktime uint32
	sequence uint32

	checkSig CheckSig

	// codeseparator is the byte offset of the last OP_CODESEPARATOR this
	// engine executed, 0 if none has run yet. CHECKSIG/CHECKMULTISIG
	// pass the script from this offset onward as scriptCode.
	codeseparator int
}

func NewScriptEngine(script Script) *ScriptEngine {
	return &ScriptEngine{
		stack:    []ScriptCommand{},
		commands: script.CommandStack,
	}
}

// WithLocktime sets the transaction locktime for OP_CHECKLOCKTIMEVERIFY (BIP 65).
func (se *ScriptEngine) WithLocktime(locktime uint32) *ScriptEngine {
	se.locktime = locktime
	return se
}

// WithSequence sets the input sequence for OP_CHECKSEQUENCEVERIFY (BIP 112).
func (se *ScriptEngine) WithSequence(sequence uint32) *ScriptEngine {
	se.sequence = sequence
	return se
}

// WithWitness sets the witness stack for SegWit inputs.
func (se *ScriptEngine) WithWitness(witness [][]byte) *ScriptEngine {
	se.witness = witness
	return se
}

// WithCheckSig wires in the signature verifier OP_CHECKSIG and
// OP_CHECKMULTISIG call out to. Without one, every signature check
// fails closed rather than panicking.
func (se *ScriptEngine) WithCheckSig(fn CheckSig) *ScriptEngine {
	se.checkSig = fn
	return se
}

func (se *ScriptEngine) pop() (ScriptCommand, bool) {
	if len(se.stack) < 1 {
		return ScriptCommand{}, false
	}
	top := se.stack[len(se.stack)-1]
	se.stack = se.stack[:len(se.stack)-1]
	return top, true
}

func (se *ScriptEngine) peek() (ScriptCommand, bool) {
	if len(se.stack) < 1 {
		return ScriptCommand{}, false
	}
	return se.stack[len(se.stack)-1], true
}

func (se *ScriptEngine) pushData(data []byte) {
	se.stack = append(se.stack, ScriptCommand{Data: data, IsData: true})
}

func (se *ScriptEngine) push(cmd ScriptCommand) {
	se.stack = append(se.stack, cmd)
}

func (se *ScriptEngine) P2sh(redeemScript, hash ScriptCommand) (*ScriptElement, bool) {
	if !se.OpHash160() {
		return nil, false
	}
	se.push(hash)
	if !se.OpEqualVerify() {
		return nil, false
	}

	root, err := linkElements(tokenizeOrData(redeemScript.Data))
	if err != nil {
		return nil, false
	}
	return root, true
}

func (se *ScriptEngine) P2wsh(hash256 ScriptCommand) (*ScriptElement, bool) {
	if len(se.witness) == 0 {
		return nil, false
	}
	witnessScript := se.witness[len(se.witness)-1]

	actualHash := sha256.Sum256(witnessScript)
	if !bytes.Equal(actualHash[:], hash256.Data) {
		return nil, false
	}

	for i := 0; i < len(se.witness)-1; i++ {
		se.pushData(se.witness[i])
	}

	cmds, err := tokenize(witnessScript)
	if err != nil {
		return nil, false
	}
	root, err := linkElements(cmds)
	if err != nil {
		return nil, false
	}
	return root, true
}

func (se *ScriptEngine) P2wpkh(hash160 ScriptCommand) (*ScriptElement, bool) {
	if len(se.witness) != 2 {
		return nil, false
	}
	se.pushData(se.witness[0]) // signature
	se.pushData(se.witness[1]) // pubkey

	root, err := linkElements(P2pkhScript(hash160.Data).CommandStack)
	if err != nil {
		return nil, false
	}
	return root, true
}

// tokenizeOrData treats data as a single opaque push if it doesn't
// tokenize as valid opcodes - mirrors how a redeemScript extracted from
// a ScriptSig is itself just a length-prefixed script body.
func tokenizeOrData(data []byte) []ScriptCommand {
	cmds, err := tokenize(data)
	if err != nil {
		return []ScriptCommand{{Data: data, IsData: true}}
	}
	return cmds
}

// Execute runs the script graph to completion, returning true if the
// final stack item is non-zero (script succeeds).
func (se *ScriptEngine) Execute(z []byte) bool {
	se.z = z

	// A native witness program is recognized structurally: the entire
	// scriptPubKey being spent is nothing but OP_0 <20-or-32 byte hash>,
	// with the real script supplied out of band via the witness.
	if len(se.commands) == 2 && !se.commands[0].IsData && se.commands[0].Opcode == OP_0 && se.commands[1].IsData {
		switch len(se.commands[1].Data) {
		case 20:
			root, ok := se.P2wpkh(se.commands[1])
			if !ok {
				return false
			}
			return se.runGraph(root, true)
		case 32:
			root, ok := se.P2wsh(se.commands[1])
			if !ok {
				return false
			}
			return se.runGraph(root, true)
		}
	}

	root, err := linkElements(se.commands)
	if err != nil {
		return false
	}
	return se.runGraph(root, true)
}

// runSigScript runs cmds (the scriptSig half of the validation pipeline)
// with CHECKSIG and CHECKMULTISIG forced to fail, leaving whatever it
// pushed on se.stack for the pub_key_script half to continue from. A
// scriptSig is never allowed to satisfy a signature check on its own -
// only the combined run against pub_key_script can.
func (se *ScriptEngine) runSigScript(cmds []ScriptCommand) bool {
	realCheckSig := se.checkSig
	se.checkSig = nil
	defer func() { se.checkSig = realCheckSig }()

	root, err := linkElements(cmds)
	if err != nil {
		return false
	}
	se.commands = cmds
	return se.runGraph(root, false)
}

// runGraph walks the linked command graph, dispatching each element.
// When verifyFinal is false the run stops short of collapsing the
// stack to a bool - used for the scriptSig half of the two-phase
// validation pipeline, which only needs to leave a stack behind.
func (se *ScriptEngine) runGraph(root *ScriptElement, verifyFinal bool) bool {
	cursor := root
	for cursor != nil {
		cmd := cursor.Cmd

		if !cmd.IsData && (cmd.Opcode == OP_IF || cmd.Opcode == OP_NOTIF) {
			condition, ok := se.pop()
			if !ok {
				return false
			}
			isTrue := CastToBool(condition.Data)
			if cmd.Opcode == OP_NOTIF {
				isTrue = !isTrue
			}
			if isTrue {
				cursor = cursor.Next
			} else {
				cursor = cursor.NextElse
			}
			continue
		}

		if !cmd.IsData && cmd.Opcode == OP_CODESEPARATOR {
			se.codeseparator = cursor.id
			cursor = cursor.Next
			continue
		}

		// ELSE/ENDIF and the reserved NOPs carry no stack effect of
		// their own; the graph already routes around the branch that
		// wasn't taken, and NOP1/NOP4-NOP10 must succeed untouched.
		if !cmd.IsData && (cmd.Opcode == OP_ELSE || cmd.Opcode == OP_ENDIF || cmd.Opcode == OP_NOP ||
			cmd.Opcode == OP_NOP1 || cmd.Opcode == OP_NOP4 || cmd.Opcode == OP_NOP5 || cmd.Opcode == OP_NOP6 ||
			cmd.Opcode == OP_NOP7 || cmd.Opcode == OP_NOP8 || cmd.Opcode == OP_NOP9 || cmd.Opcode == OP_NOP10) {
			cursor = cursor.Next
			continue
		}

		if cmd.IsData {
			se.push(cmd)
			cursor = cursor.Next
			continue
		}

		if cmd.Opcode == OP_HASH160 && isP2shLookahead(cursor) {
			redeemScript, ok := se.peek()
			if !ok {
				return false
			}
			injected, ok := se.P2sh(redeemScript, cursor.Next.Cmd)
			if !ok {
				return false
			}
			cursor = injected
			continue
		}

		if !se.ExecuteCommand(cmd) {
			return false
		}
		cursor = cursor.Next
	}

	if !verifyFinal {
		return true
	}

	return se.verifyFinalStack()
}

// isP2shLookahead reports whether cursor begins the BIP16
// OP_HASH160 <20-byte hash> OP_EQUAL pattern.
func isP2shLookahead(cursor *ScriptElement) bool {
	return cursor.Next != nil && cursor.Next.Cmd.IsData && len(cursor.Next.Cmd.Data) == 20 &&
		cursor.Next.Next != nil && !cursor.Next.Next.Cmd.IsData && cursor.Next.Next.Cmd.Opcode == OP_EQUAL
}

func (se *ScriptEngine) verifyFinalStack() bool {
	top, ok := se.pop()
	if !ok {
		return false
	}
	return CastToBool(top.Data)
}

// CastToBool implements Bitcoin Script's number-as-bool rule: a value
// is false if it's all zero bytes, or if its only nonzero byte is a
// sign bit on the last byte ([0x80], the negative-zero encoding).
// Anything else is true.
func CastToBool(data []byte) bool {
	for i, b := range data {
		if b == 0 {
			continue
		}
		if i == len(data)-1 && b == 0x80 {
			return false
		}
		return true
	}
	return false
}

func (se *ScriptEngine) ExecuteCommand(cmd ScriptCommand) bool {
	switch cmd.Opcode {
	case OP_0:
		se.pushData([]byte{})
		return true
	case OP_1NEGATE:
		se.pushData(EncodeNum(-1))
		return true
	case OP_DUP:
		return se.OpDup()
	case OP_2DUP:
		return se.Op2Dup()
	case OP_1, OP_2, OP_3, OP_4, OP_5, OP_6, OP_7, OP_8, OP_9, OP_10, OP_11, OP_12, OP_13, OP_14, OP_15, OP_16:
		num := int64(cmd.Opcode - 0x50)
		se.pushData(EncodeNum(num))
		return true
	case OP_ADD:
		return se.OpAdd()
	case OP_SUB:
		return se.OpSub()
	case OP_SHA1:
		return se.OpSha1()
	case OP_SHA256:
		return se.OpSha256()
	case OP_RIPEMD160:
		return se.OpRipemd160()
	case OP_HASH256:
		return se.OpHash256()
	case OP_HASH160:
		return se.OpHash160()
	case OP_TOALSTACK:
		return se.OpToAltStack()
	case OP_FROMALTSTACK:
		return se.OpFromAltStack()
	case OP_DROP:
		return se.OpDrop()
	case OP_2DROP:
		return se.Op2Drop()
	case OP_DEPTH:
		return se.OpDepth()
	case OP_NIP:
		return se.OpNip()
	case OP_OVER:
		return se.OpOver()
	case OP_PICK:
		return se.OpPick()
	case OP_ROLL:
		return se.OpRoll()
	case OP_ROT:
		return se.OpRot()
	case OP_2SWAP:
		return se.Op2Swap()
	case OP_2ROT:
		return se.Op2Rot()
	case OP_3DUP:
		return se.Op3Dup()
	case OP_TUCK:
		return se.OpTuck()
	case OP_IFDUP:
		return se.OpIfDup()
	case OP_SIZE:
		return se.OpSize()
	case OP_CHECKSIG:
		return se.OpCheckSig()
	case OP_CHECKMULTISIG:
		return se.OpCheckMultiSig()
	case OP_CHECKMULTISIGVERIFY:
		return se.OpCheckMultiSig() && se.OpVerify()
	case OP_CHECKSIGVERIFY:
		return se.OpCheckSigVerify()
	case OP_NOT:
		return se.OpNot()
	case OP_0NOTEQUAL:
		return se.Op0NotEqual()
	case OP_1ADD:
		return se.Op1Add()
	case OP_1SUB:
		return se.Op1Sub()
	case OP_NEGATE:
		return se.OpNegate()
	case OP_ABS:
		return se.OpAbs()
	case OP_BOOLAND:
		return se.OpBoolAnd()
	case OP_BOOLOR:
		return se.OpBoolOr()
	case OP_NUMEQUAL:
		return se.OpNumEqual()
	case OP_NUMEQUALVERIFY:
		return se.OpNumEqual() && se.OpVerify()
	case OP_NUMNOTEQUAL:
		return se.OpNumNotEqual()
	case OP_LESSTHAN:
		return se.OpLessThan()
	case OP_GREATERTHAN:
		return se.OpGreaterThan()
	case OP_LESSTHANOREQUAL:
		return se.OpLessThanOrEqual()
	case OP_GREATERTHANOREQUAL:
		return se.OpGreaterThanOrEqual()
	case OP_MIN:
		return se.OpMin()
	case OP_MAX:
		return se.OpMax()
	case OP_WITHIN:
		return se.OpWithin()
	case OP_EQUAL:
		return se.OpEqual()
	case OP_EQUALVERIFY:
		return se.OpEqualVerify()
	case OP_VERIFY:
		return se.OpVerify()
	case OP_SWAP:
		return se.OpSwap()
	case OP_CHECKLOCKTIMEVERIFY:
		return se.OpCheckLocktimeVerify()
	case OP_CHECKSEQUENCEVERIFY:
		return se.OpCheckSequenceVerify()
	case OP_RETURN:
		return false
	default:
		return false
	}
}

func (se *ScriptEngine) OpDup() bool {
	top, ok := se.peek()
	if !ok {
		return false
	}
	se.push(top)
	return true
}

func (se *ScriptEngine) Op2Dup() bool {
	if len(se.stack) < 2 {
		return false
	}
	second := se.stack[len(se.stack)-2]
	first := se.stack[len(se.stack)-1]
	se.push(second)
	se.push(first)
	return true
}

func (se *ScriptEngine) OpDepth() bool {
	se.pushData(EncodeNum(int64(len(se.stack))))
	return true
}

func (se *ScriptEngine) OpHash256() bool {
	element, ok := se.pop()
	if !ok {
		return false
	}
	se.pushData(encoding.Hash256(element.Data))
	return true
}

func (se *ScriptEngine) OpHash160() bool {
	element, ok := se.pop()
	if !ok {
		return false
	}
	se.pushData(encoding.Hash160(element.Data))
	return true
}

func (se *ScriptEngine) OpSha256() bool {
	element, ok := se.pop()
	if !ok {
		return false
	}
	hash := sha256.Sum256(element.Data)
	se.pushData(hash[:])
	return true
}

func (se *ScriptEngine) OpRipemd160() bool {
	element, ok := se.pop()
	if !ok {
		return false
	}
	hasher := ripemd160.New()
	hasher.Write(element.Data)
	se.pushData(hasher.Sum(nil))
	return true
}

func (se *ScriptEngine) OpToAltStack() bool {
	item, ok := se.pop()
	if !ok {
		return false
	}
	se.altstack = append(se.altstack, item)
	return true
}

func (se *ScriptEngine) OpFromAltStack() bool {
	if len(se.altstack) == 0 {
		return false
	}
	item := se.altstack[len(se.altstack)-1]
	se.altstack = se.altstack[:len(se.altstack)-1]
	se.push(item)
	return true
}

func (se *ScriptEngine) OpDrop() bool {
	_, ok := se.pop()
	return ok
}

func (se *ScriptEngine) Op2Drop() bool {
	return se.OpDrop() && se.OpDrop()
}

// scriptCode is the subscript CHECKSIG/CHECKMULTISIG run against: the
// currently executing command list from the last OP_CODESEPARATOR
// onward, re-serialized. A verifier that recomputes its own sighash
// needs this to exclude whatever the scriptSig author already spent.
func (se *ScriptEngine) scriptCode() []byte {
	raw, err := encodeCommands(se.commands)
	if err != nil || se.codeseparator >= len(raw) {
		return raw
	}
	return raw[se.codeseparator:]
}

func (se *ScriptEngine) checkSigHelper(pubkeyCmd, sigCmd ScriptCommand, z *big.Int) bool {
	if se.checkSig == nil {
		return false
	}
	if len(sigCmd.Data) == 0 {
		return false
	}
	derSig := sigCmd.Data[:len(sigCmd.Data)-1] // strip sighash type byte
	return se.checkSig(z, derSig, pubkeyCmd.Data, se.scriptCode())
}

func (se *ScriptEngine) OpCheckSig() bool {
	pubkeyCmd, ok := se.pop()
	if !ok {
		return false
	}
	sigCmd, ok := se.pop()
	if !ok {
		return false
	}

	z := new(big.Int).SetBytes(se.z)
	if se.checkSigHelper(pubkeyCmd, sigCmd, z) {
		se.pushData([]byte{0x01})
	} else {
		se.pushData([]byte{})
	}
	return true
}

func (se *ScriptEngine) OpCheckSigVerify() bool {
	return se.OpCheckSig() && se.OpVerify()
}

// OpCheckMultiSig reproduces Bitcoin's historic off-by-one: after
// popping n pubkeys and m signatures, one extra stack element is popped
// and discarded (a bug in the original CHECKMULTISIG design that every
// script using it must account for by pushing a dummy value).
func (se *ScriptEngine) OpCheckMultiSig() bool {
	top, ok := se.pop()
	if !ok {
		return false
	}
	n := int(DecodeNum(top.Data))
	if n < 0 || len(se.stack) < n+1 {
		return false
	}
	secPubkeys := make([]ScriptCommand, 0, n)
	for i := 0; i < n; i++ {
		top, ok = se.pop()
		if !ok {
			return false
		}
		secPubkeys = append(secPubkeys, top)
	}

	top, ok = se.pop()
	if !ok {
		return false
	}
	m := int(DecodeNum(top.Data))
	if m < 0 || len(se.stack) < m+1 {
		return false
	}
	derSignatures := make([]ScriptCommand, 0, m)
	for i := 0; i < m; i++ {
		top, ok = se.pop()
		if !ok {
			return false
		}
		derSignatures = append(derSignatures, top)
	}

	// off-by-one filler element
	if _, ok = se.pop(); !ok {
		return false
	}

	z := new(big.Int).SetBytes(se.z)
	sigIndex, pubkeyIndex := 0, 0
	for sigIndex < m && pubkeyIndex < n {
		if se.checkSigHelper(secPubkeys[pubkeyIndex], derSignatures[sigIndex], z) {
			sigIndex++
		}
		pubkeyIndex++
	}

	if sigIndex == m {
		se.pushData([]byte{0x01})
	} else {
		se.pushData([]byte{0x00})
	}
	return true
}

func (se *ScriptEngine) OpEqual() bool {
	item1, ok := se.pop()
	if !ok {
		return false
	}
	item2, ok := se.pop()
	if !ok {
		return false
	}
	if bytes.Equal(item1.Data, item2.Data) {
		se.pushData([]byte{0x01})
	} else {
		se.pushData([]byte{0x00})
	}
	return true
}

func (se *ScriptEngine) OpEqualVerify() bool {
	return se.OpEqual() && se.OpVerify()
}

func (se *ScriptEngine) OpVerify() bool {
	item, ok := se.pop()
	if !ok {
		return false
	}
	return CastToBool(item.Data)
}

func (se *ScriptEngine) OpSwap() bool {
	item1, ok := se.pop()
	if !ok {
		return false
	}
	item2, ok := se.pop()
	if !ok {
		return false
	}
	se.push(item1)
	se.push(item2)
	return true
}

// OpNip drops the second-from-top stack item, keeping the top.
func (se *ScriptEngine) OpNip() bool {
	top, ok := se.pop()
	if !ok {
		return false
	}
	if _, ok := se.pop(); !ok {
		return false
	}
	se.push(top)
	return true
}

// OpOver copies the second-from-top item to the top.
func (se *ScriptEngine) OpOver() bool {
	if len(se.stack) < 2 {
		return false
	}
	se.push(se.stack[len(se.stack)-2])
	return true
}

// OpPick copies the n-th item back from the top (after popping n) to
// the top, without removing it from its original position.
func (se *ScriptEngine) OpPick() bool {
	nCmd, ok := se.pop()
	if !ok {
		return false
	}
	n := DecodeNum(nCmd.Data)
	if n < 0 || int(n) >= len(se.stack) {
		return false
	}
	se.push(se.stack[len(se.stack)-1-int(n)])
	return true
}

// OpRoll moves the n-th item back from the top (after popping n) to
// the top, removing it from its original position.
func (se *ScriptEngine) OpRoll() bool {
	nCmd, ok := se.pop()
	if !ok {
		return false
	}
	n := DecodeNum(nCmd.Data)
	if n < 0 || int(n) >= len(se.stack) {
		return false
	}
	idx := len(se.stack) - 1 - int(n)
	item := se.stack[idx]
	se.stack = append(se.stack[:idx], se.stack[idx+1:]...)
	se.push(item)
	return true
}

// OpRot rotates the top three stack items left: (x1 x2 x3 -> x2 x3 x1).
func (se *ScriptEngine) OpRot() bool {
	if len(se.stack) < 3 {
		return false
	}
	n := len(se.stack)
	se.stack[n-3], se.stack[n-2], se.stack[n-1] = se.stack[n-2], se.stack[n-1], se.stack[n-3]
	return true
}

// Op2Swap swaps the top two pairs of items: (x1 x2 x3 x4 -> x3 x4 x1 x2).
func (se *ScriptEngine) Op2Swap() bool {
	if len(se.stack) < 4 {
		return false
	}
	n := len(se.stack)
	se.stack[n-4], se.stack[n-3], se.stack[n-2], se.stack[n-1] =
		se.stack[n-2], se.stack[n-1], se.stack[n-4], se.stack[n-3]
	return true
}

// Op2Rot rotates the top three pairs of items left.
func (se *ScriptEngine) Op2Rot() bool {
	if len(se.stack) < 6 {
		return false
	}
	n := len(se.stack)
	pair1 := [2]ScriptCommand{se.stack[n-6], se.stack[n-5]}
	copy(se.stack[n-6:], se.stack[n-4:])
	se.stack[n-2], se.stack[n-1] = pair1[0], pair1[1]
	return true
}

// Op3Dup duplicates the top three stack items.
func (se *ScriptEngine) Op3Dup() bool {
	if len(se.stack) < 3 {
		return false
	}
	n := len(se.stack)
	se.push(se.stack[n-3])
	se.push(se.stack[n-2])
	se.push(se.stack[n-1])
	return true
}

// OpTuck copies the top item and inserts it below the second item.
func (se *ScriptEngine) OpTuck() bool {
	top, ok := se.pop()
	if !ok {
		return false
	}
	second, ok := se.pop()
	if !ok {
		return false
	}
	se.push(top)
	se.push(second)
	se.push(top)
	return true
}

// OpIfDup duplicates the top item only if it's truthy.
func (se *ScriptEngine) OpIfDup() bool {
	top, ok := se.peek()
	if !ok {
		return false
	}
	if CastToBool(top.Data) {
		se.push(top)
	}
	return true
}

// OpSize pushes the byte length of the top item, leaving it in place.
func (se *ScriptEngine) OpSize() bool {
	top, ok := se.peek()
	if !ok {
		return false
	}
	se.pushData(EncodeNum(int64(len(top.Data))))
	return true
}

func (se *ScriptEngine) arith2(f func(a, b int64) int64) bool {
	a, ok := se.pop()
	if !ok {
		return false
	}
	b, ok := se.pop()
	if !ok {
		return false
	}
	an, err := ParseScriptNum(a.Data)
	if err != nil {
		return false
	}
	bn, err := ParseScriptNum(b.Data)
	if err != nil {
		return false
	}
	se.pushData(EncodeNum(f(an, bn)))
	return true
}

func (se *ScriptEngine) OpAdd() bool { return se.arith2(func(a, b int64) int64 { return a + b }) }
func (se *ScriptEngine) OpSub() bool { return se.arith2(func(a, b int64) int64 { return a - b }) }

func (se *ScriptEngine) OpBoolAnd() bool {
	return se.arith2(func(a, b int64) int64 {
		if a != 0 && b != 0 {
			return 1
		}
		return 0
	})
}

func (se *ScriptEngine) OpBoolOr() bool {
	return se.arith2(func(a, b int64) int64 {
		if a != 0 || b != 0 {
			return 1
		}
		return 0
	})
}

func (se *ScriptEngine) OpNumEqual() bool {
	return se.arith2(func(a, b int64) int64 {
		if a == b {
			return 1
		}
		return 0
	})
}

func (se *ScriptEngine) OpNumNotEqual() bool {
	return se.arith2(func(a, b int64) int64 {
		if a != b {
			return 1
		}
		return 0
	})
}

func (se *ScriptEngine) OpLessThan() bool {
	return se.arith2(func(a, b int64) int64 {
		if b < a {
			return 1
		}
		return 0
	})
}

func (se *ScriptEngine) OpGreaterThan() bool {
	return se.arith2(func(a, b int64) int64 {
		if b > a {
			return 1
		}
		return 0
	})
}

func (se *ScriptEngine) OpLessThanOrEqual() bool {
	return se.arith2(func(a, b int64) int64 {
		if b <= a {
			return 1
		}
		return 0
	})
}

func (se *ScriptEngine) OpGreaterThanOrEqual() bool {
	return se.arith2(func(a, b int64) int64 {
		if b >= a {
			return 1
		}
		return 0
	})
}

func (se *ScriptEngine) OpMin() bool {
	return se.arith2(func(a, b int64) int64 {
		if a < b {
			return a
		}
		return b
	})
}

func (se *ScriptEngine) OpMax() bool {
	return se.arith2(func(a, b int64) int64 {
		if a > b {
			return a
		}
		return b
	})
}

// OpWithin pops max, min and x (top to bottom) and pushes whether
// min <= x < max.
func (se *ScriptEngine) OpWithin() bool {
	maxCmd, ok := se.pop()
	if !ok {
		return false
	}
	minCmd, ok := se.pop()
	if !ok {
		return false
	}
	xCmd, ok := se.pop()
	if !ok {
		return false
	}
	max, err := ParseScriptNum(maxCmd.Data)
	if err != nil {
		return false
	}
	min, err := ParseScriptNum(minCmd.Data)
	if err != nil {
		return false
	}
	x, err := ParseScriptNum(xCmd.Data)
	if err != nil {
		return false
	}
	if x >= min && x < max {
		se.pushData(EncodeNum(1))
	} else {
		se.pushData(EncodeNum(0))
	}
	return true
}

func (se *ScriptEngine) arith1(f func(a int64) int64) bool {
	item, ok := se.pop()
	if !ok {
		return false
	}
	n, err := ParseScriptNum(item.Data)
	if err != nil {
		return false
	}
	se.pushData(EncodeNum(f(n)))
	return true
}

func (se *ScriptEngine) Op1Add() bool   { return se.arith1(func(a int64) int64 { return a + 1 }) }
func (se *ScriptEngine) Op1Sub() bool   { return se.arith1(func(a int64) int64 { return a - 1 }) }
func (se *ScriptEngine) OpNegate() bool { return se.arith1(func(a int64) int64 { return -a }) }

func (se *ScriptEngine) OpAbs() bool {
	return se.arith1(func(a int64) int64 {
		if a < 0 {
			return -a
		}
		return a
	})
}

func (se *ScriptEngine) OpNot() bool {
	return se.arith1(func(a int64) int64 {
		if a == 0 {
			return 1
		}
		return 0
	})
}

func (se *ScriptEngine) Op0NotEqual() bool {
	return se.arith1(func(a int64) int64 {
		if a != 0 {
			return 1
		}
		return 0
	})
}

func (se *ScriptEngine) OpSha1() bool {
	element, ok := se.pop()
	if !ok {
		return false
	}
	hash := sha1.Sum(element.Data)
	se.pushData(hash[:])
	return true
}

// OpCheckLocktimeVerify implements OP_CHECKLOCKTIMEVERIFY (BIP 65): the
// transaction's locktime must be at least the stacked value, both must
// be the same kind of lock (block height vs. unix timestamp), and the
// input must not have a finalized sequence number. Doesn't consume the
// stack.
func (se *ScriptEngine) OpCheckLocktimeVerify() bool {
	element, ok := se.peek()
	if !ok {
		return false
	}
	stackLocktime := DecodeNum(element.Data)
	if stackLocktime < 0 {
		return false
	}
	if se.sequence == 0xffffffff {
		return false
	}

	const lockTimeThreshold = 500000000
	stackIsTimestamp := stackLocktime >= lockTimeThreshold
	txIsTimestamp := se.locktime >= lockTimeThreshold
	if stackIsTimestamp != txIsTimestamp {
		return false
	}
	return int64(se.locktime) >= stackLocktime
}

// OpCheckSequenceVerify implements OP_CHECKSEQUENCEVERIFY (BIP 112):
// relative lock-time gated on BIP 68 sequence numbers. Doesn't consume
// the stack.
func (se *ScriptEngine) OpCheckSequenceVerify() bool {
	element, ok := se.peek()
	if !ok {
		return false
	}
	stackSequence := DecodeNum(element.Data)
	if stackSequence < 0 {
		return false
	}

	const disableFlag = uint32(1 << 31)
	if uint32(stackSequence)&disableFlag != 0 {
		return true
	}
	if se.sequence&disableFlag != 0 {
		return false
	}

	const typeFlag = uint32(1 << 22)
	if uint32(stackSequence)&typeFlag != se.sequence&typeFlag {
		return false
	}

	const mask = 0x0000ffff
	if se.sequence&mask < uint32(stackSequence)&mask {
		return false
	}
	return true
}
