package script

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"go-bitcoin/internal/encoding"
	"io"
)

// ScriptCommand is a single parsed opcode or data push, in source order.
// It is the vocabulary ParseScript/NewScript/tests build scripts from;
// ScriptElement is the executable graph derived from a CommandStack.
type ScriptCommand struct {
	Opcode byte
	Data   []byte
	IsData bool // true if Data is set, false if it's an Opcode
}

// Script is a parsed script body. CommandStack is the source-order
// command list; Raw, when set, is the exact byte sequence to emit on
// Serialize instead of re-encoding CommandStack - needed for scripts
// that aren't valid pushdata-encoded data (coinbase scriptSig) or that
// failed to tokenize at all (malformed scriptPubKey still round-tripped
// for hashing/filter purposes).
type Script struct {
	CommandStack []ScriptCommand
	Raw          []byte

	// sigScriptLen is the number of leading CommandStack entries that
	// belong to the scriptSig half, set by Combine. Zero means
	// CommandStack is a single script with no sigScript/pubKeyScript
	// split to honor.
	sigScriptLen int
}

func NewScript(cmds []ScriptCommand) Script {
	return Script{CommandStack: cmds}
}

// NewRawScript wraps bytes that should be emitted verbatim on Serialize,
// bypassing CommandStack re-encoding entirely.
func NewRawScript(data []byte) Script {
	return Script{Raw: data}
}

// ReadScriptBytes reads a var-int length prefix followed by that many raw
// script bytes, without tokenizing. Callers that need a best-effort parse
// too should follow up with ParseScript on a reader over the same bytes.
func ReadScriptBytes(r io.Reader) ([]byte, error) {
	return encoding.ReadVarBytes(r)
}

func ParseScript(r io.Reader) (Script, error) {
	length, err := encoding.ReadVarInt(r)
	if err != nil {
		return Script{}, fmt.Errorf("script parsing error (read) - %w", err)
	}

	raw := make([]byte, length)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Script{}, fmt.Errorf("script parsing error (body) - %w", err)
	}

	cmds, err := tokenize(raw)
	if err != nil {
		return Script{}, err
	}
	return Script{CommandStack: cmds, Raw: raw}, nil
}

// tokenize splits a script body into its pushdata/opcode commands.
func tokenize(raw []byte) ([]ScriptCommand, error) {
	var cmds []ScriptCommand
	r := bytes.NewReader(raw)

	for r.Len() > 0 {
		currentByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("script parsing error (length) - %w", err)
		}

		switch {
		case currentByte >= 1 && currentByte <= 75:
			elemLen := int(currentByte)
			buf := make([]byte, elemLen)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("script parsing error (append) - %w", err)
			}
			cmds = append(cmds, ScriptCommand{Data: buf, IsData: true})
		case currentByte == OP_PUSHDATA1:
			lenByte, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("script parsing error: OP_PUSHDATA1 - %w", err)
			}
			buf := make([]byte, int(lenByte))
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("script parsing error: OP_PUSHDATA1 - %w", err)
			}
			cmds = append(cmds, ScriptCommand{Data: buf, IsData: true})
		case currentByte == OP_PUSHDATA2:
			lenBuf := make([]byte, 2)
			if _, err := io.ReadFull(r, lenBuf); err != nil {
				return nil, fmt.Errorf("script parsing error: OP_PUSHDATA2 - %w", err)
			}
			buf := make([]byte, int(binary.LittleEndian.Uint16(lenBuf)))
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("script parsing error: OP_PUSHDATA2 - %w", err)
			}
			cmds = append(cmds, ScriptCommand{Data: buf, IsData: true})
		case currentByte == OP_PUSHDATA4:
			lenBuf := make([]byte, 4)
			if _, err := io.ReadFull(r, lenBuf); err != nil {
				return nil, fmt.Errorf("script parsing error: OP_PUSHDATA4 - %w", err)
			}
			buf := make([]byte, int(binary.LittleEndian.Uint32(lenBuf)))
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("script parsing error: OP_PUSHDATA4 - %w", err)
			}
			cmds = append(cmds, ScriptCommand{Data: buf, IsData: true})
		default:
			cmds = append(cmds, ScriptCommand{Opcode: currentByte, IsData: false})
		}
	}
	return cmds, nil
}

// encodeCommands serializes a CommandStack back to its raw byte body,
// choosing the shortest pushdata opcode for each data element.
func encodeCommands(cmds []ScriptCommand) ([]byte, error) {
	var result bytes.Buffer
	for _, cmd := range cmds {
		if !cmd.IsData {
			if err := result.WriteByte(cmd.Opcode); err != nil {
				return nil, err
			}
			continue
		}

		dataLen := len(cmd.Data)
		switch {
		case dataLen <= 75:
			if err := result.WriteByte(byte(dataLen)); err != nil {
				return nil, err
			}
		case dataLen <= 0xff:
			if err := result.WriteByte(OP_PUSHDATA1); err != nil {
				return nil, err
			}
			if err := result.WriteByte(byte(dataLen)); err != nil {
				return nil, err
			}
		case dataLen <= 0xffff:
			if err := result.WriteByte(OP_PUSHDATA2); err != nil {
				return nil, err
			}
			lenBytes := make([]byte, 2)
			binary.LittleEndian.PutUint16(lenBytes, uint16(dataLen))
			if _, err := result.Write(lenBytes); err != nil {
				return nil, err
			}
		default:
			if err := result.WriteByte(OP_PUSHDATA4); err != nil {
				return nil, err
			}
			lenBytes := make([]byte, 4)
			binary.LittleEndian.PutUint32(lenBytes, uint32(dataLen))
			if _, err := result.Write(lenBytes); err != nil {
				return nil, err
			}
		}
		if _, err := result.Write(cmd.Data); err != nil {
			return nil, err
		}
	}
	return result.Bytes(), nil
}

// Serialize returns the var-int length prefixed script body. A Script
// that carries Raw (built with NewRawScript, or read by ParseScript)
// emits it verbatim; otherwise CommandStack is re-encoded.
func (s Script) Serialize() ([]byte, error) {
	body := s.Raw
	if body == nil {
		var err error
		body, err = encodeCommands(s.CommandStack)
		if err != nil {
			return nil, fmt.Errorf("script serialization error - %w", err)
		}
	}

	length, err := encoding.EncodeVarInt(uint64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("script serialization error: varint length - %w", err)
	}
	return append(length, body...), nil
}

// RawBytes returns the unprefixed script body.
func (s Script) RawBytes() ([]byte, error) {
	if s.Raw != nil {
		return s.Raw, nil
	}
	return encodeCommands(s.CommandStack)
}

// FirstPushData returns the data of the first command, if the script
// starts with a data push (used to read the BIP34 height out of a
// coinbase scriptSig).
func (s Script) FirstPushData() ([]byte, bool) {
	if len(s.CommandStack) == 0 || !s.CommandStack[0].IsData {
		return nil, false
	}
	return s.CommandStack[0].Data, true
}

// Combine joins a scriptSig and scriptPubKey for the two-phase
// validation pipeline Evaluate/EvaluateWithCheckSig run: scriptSig's
// commands execute first, then scriptPubKey continues from whatever
// scriptSig left on the stack.
func (s Script) Combine(scriptPubKey Script) Script {
	combined := make([]ScriptCommand, 0, len(s.CommandStack)+len(scriptPubKey.CommandStack))
	combined = append(combined, s.CommandStack...)
	combined = append(combined, scriptPubKey.CommandStack...)
	return Script{CommandStack: combined, sigScriptLen: len(s.CommandStack)}
}

// Evaluate runs a Combine'd sigScript+pubKeyScript with no locktime/CSV
// context and no witness data - the non-SegWit, non-timelocked case.
// OP_CHECKSIG and OP_CHECKMULTISIG fail closed, since no signature
// verifier is wired in; use EvaluateWithCheckSig for scripts that
// actually check a signature.
func (s Script) Evaluate(sighash []byte, witness [][]byte) bool {
	return s.evaluate(sighash, witness, nil)
}

// EvaluateWithCheckSig is Evaluate with a signature verifier wired in,
// for scripts that exercise OP_CHECKSIG or OP_CHECKMULTISIG.
func (s Script) EvaluateWithCheckSig(sighash []byte, witness [][]byte, checkSig CheckSig) bool {
	return s.evaluate(sighash, witness, checkSig)
}

// evaluate runs the two-phase validation pipeline: scriptSig executes
// first with CHECKSIG forced to fail (a scriptSig can never satisfy its
// own signature check), then scriptPubKey continues from the resulting
// stack with the real checkSig wired in. A Script with no sigScript/
// pubKeyScript split (not built via Combine) just runs straight through.
func (s Script) evaluate(sighash []byte, witness [][]byte, checkSig CheckSig) bool {
	engine := NewScriptEngine(s)
	engine.witness = witness
	engine.checkSig = checkSig

	if s.sigScriptLen <= 0 || s.sigScriptLen >= len(s.CommandStack) {
		return engine.Execute(sighash)
	}

	engine.z = sighash
	if !engine.runSigScript(s.CommandStack[:s.sigScriptLen]) {
		return false
	}

	engine.commands = s.CommandStack[s.sigScriptLen:]
	engine.codeseparator = 0 // CODESEPARATOR offsets don't carry across the sigScript/pubKeyScript boundary
	return engine.Execute(sighash)
}

func IsP2sh(triplet []ScriptCommand) bool {
	return len(triplet) >= 3 &&
		triplet[0].Opcode == OP_HASH160 &&
		triplet[1].IsData && len(triplet[1].Data) == 20 &&
		triplet[2].Opcode == OP_EQUAL
}

func IsP2wsh(pair []ScriptCommand) bool {
	return len(pair) == 2 &&
		pair[0].Opcode == OP_0 &&
		pair[1].IsData &&
		len(pair[1].Data) == 32
}

func (s Script) IsP2shScriptPubKey() bool {
	return IsP2sh(s.CommandStack)
}

func (s Script) IsP2wpkhScriptPubKey() bool {
	return len(s.CommandStack) == 2 &&
		s.CommandStack[0].Opcode == OP_0 &&
		s.CommandStack[1].IsData &&
		len(s.CommandStack[1].Data) == 20
}

func (s Script) IsP2wshScriptPubKey() bool {
	return IsP2wsh(s.CommandStack)
}

func P2pkhScript(h160 []byte) Script {
	return NewScript([]ScriptCommand{
		{Opcode: OP_DUP},
		{Opcode: OP_HASH160},
		{IsData: true, Data: h160},
		{Opcode: OP_EQUALVERIFY},
		{Opcode: OP_CHECKSIG},
	})
}

func P2pkhAddress(h160 []byte, testNet bool) string {
	prefix := 0x00
	if testNet {
		prefix = 0x6f
	}
	return encoding.EncodeBase58Checksum(append([]byte{byte(prefix)}, h160...))
}

func P2shAddress(h160 []byte, testNet bool) string {
	prefix := 0x05
	if testNet {
		prefix = 0xc4
	}
	return encoding.EncodeBase58Checksum(append([]byte{byte(prefix)}, h160...))
}

func (s Script) Address(testnet bool) (string, error) {
	if len(s.CommandStack) < 3 {
		return "", errors.New("not enough commands")
	}
	if IsP2sh(s.CommandStack[0:3]) {
		return P2shAddress(s.CommandStack[1].Data, testnet), nil
	}
	return P2pkhAddress(s.CommandStack[2].Data, testnet), nil
}
