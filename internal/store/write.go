package store

import (
	"context"
	"fmt"

	"github.com/sbip-sg/slotstore/internal/abi"
	"github.com/sbip-sg/slotstore/internal/word"
)

// SlotUpdate describes the new slot contents a set call produced. A nil
// SlotUpdate in ApplyCallAtomic means the call did not mutate the slot.
type SlotUpdate struct {
	Contract string
	Index    int64
	Value    word.Word
	Seq      int64
}

// WriteCall inserts a call record into the journal.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Other constraint violations (e.g., NOT NULL) will still return errors.
//
// The call's Args are serialized to canonical JSON per RFC 8785 so replay
// sees byte-identical journal rows.
func (s *Store) WriteCall(ctx context.Context, call abi.Call) error {
	argsJSON, err := marshalArgs(call.Args)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calls
		(id, token, method, args, seq, abi_version, host_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		call.ID,
		call.Token,
		string(call.Method),
		argsJSON,
		call.Seq,
		call.ABIVersion,
		call.HostVersion,
	)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}

	return nil
}

// WriteReceipt inserts a receipt record into the journal.
// Uses ON CONFLICT DO NOTHING for idempotency - duplicate writes are silently ignored.
// Each call has exactly ONE receipt (enforced by UNIQUE constraint on call_id).
//
// Note: The call referenced by CallID must exist (foreign key constraint).
// Note: Attempting to write a second receipt for a call will silently fail (idempotent).
func (s *Store) WriteReceipt(ctx context.Context, rec abi.Receipt) error {
	resultJSON, err := marshalResult(rec.Result)
	if err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}

	// ON CONFLICT DO NOTHING handles both:
	// 1. Duplicate receipt ID (same receipt written twice)
	// 2. Duplicate call_id (second receipt for same call)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO receipts
		(id, call_id, output_case, result, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.ID,
		rec.CallID,
		rec.OutputCase,
		resultJSON,
		rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}

	return nil
}

// UpsertSlot writes the slot row, replacing any previous value.
// The slot table holds current state only; history lives in the journal.
func (s *Store) UpsertSlot(ctx context.Context, contract string, index int64, value word.Word, seq int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (contract, slot_index, value, updated_seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(contract, slot_index) DO UPDATE SET
			value = excluded.value,
			updated_seq = excluded.updated_seq
	`,
		contract,
		index,
		value.Hex(),
		seq,
	)
	if err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}
	return nil
}

// ApplyCallAtomic writes a call, its receipt, and the slot update (if any)
// in a single transaction. This is the crash-safe variant of the non-atomic
// sequence WriteCall -> WriteReceipt -> UpsertSlot: a reader never observes
// a journaled call without its receipt, or a slot ahead of its journal.
//
// Returns inserted=false if the call ID already exists; in that case the
// receipt and slot update are NOT written (the call was already applied).
func (s *Store) ApplyCallAtomic(ctx context.Context, call abi.Call, rec abi.Receipt, update *SlotUpdate) (inserted bool, err error) {
	argsJSON, err := marshalArgs(call.Args)
	if err != nil {
		return false, fmt.Errorf("apply call: %w", err)
	}

	resultJSON, err := marshalResult(rec.Result)
	if err != nil {
		return false, fmt.Errorf("apply call: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("apply call: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Step 1: Try to insert the call (claims the ID atomically via primary key)
	result, err := tx.ExecContext(ctx, `
		INSERT INTO calls
		(id, token, method, args, seq, abi_version, host_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		call.ID,
		call.Token,
		string(call.Method),
		argsJSON,
		call.Seq,
		call.ABIVersion,
		call.HostVersion,
	)
	if err != nil {
		return false, fmt.Errorf("apply call: insert call: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply call: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Call already applied, nothing more to do
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("apply call: commit (existing): %w", err)
		}
		return false, nil
	}

	// Step 2: Write the receipt
	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipts
		(id, call_id, output_case, result, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.ID,
		rec.CallID,
		rec.OutputCase,
		resultJSON,
		rec.Seq,
	)
	if err != nil {
		return false, fmt.Errorf("apply call: write receipt: %w", err)
	}

	// Step 3: Write the slot update, if the call mutated the slot
	if update != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO slots (contract, slot_index, value, updated_seq)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(contract, slot_index) DO UPDATE SET
				value = excluded.value,
				updated_seq = excluded.updated_seq
		`,
			update.Contract,
			update.Index,
			update.Value.Hex(),
			update.Seq,
		)
		if err != nil {
			return false, fmt.Errorf("apply call: upsert slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("apply call: commit: %w", err)
	}

	return true, nil
}
