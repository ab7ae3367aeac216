package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sbip-sg/slotstore/internal/abi"
	"github.com/sbip-sg/slotstore/internal/word"
)

// ReadSlot returns the persisted slot word and the seq of its last update.
// ok is false if the slot row does not exist yet (fresh ledger).
func (s *Store) ReadSlot(ctx context.Context, contract string, index int64) (value word.Word, seq int64, ok bool, err error) {
	var hexValue string
	err = s.db.QueryRowContext(ctx, `
		SELECT value, updated_seq
		FROM slots
		WHERE contract = ? AND slot_index = ?
	`, contract, index).Scan(&hexValue, &seq)
	if err == sql.ErrNoRows {
		return word.Zero, 0, false, nil
	}
	if err != nil {
		return word.Zero, 0, false, fmt.Errorf("read slot: %w", err)
	}

	value, err = word.Parse(hexValue)
	if err != nil {
		return word.Zero, 0, false, fmt.Errorf("read slot: corrupt value %q: %w", hexValue, err)
	}

	return value, seq, true, nil
}

// ReadCall retrieves a single call by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCall(ctx context.Context, id string) (abi.Call, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, token, method, args, seq, abi_version, host_version
		FROM calls
		WHERE id = ?
	`, id)

	return scanCallRow(row)
}

// ReadReceiptForCall retrieves the receipt answering a call.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadReceiptForCall(ctx context.Context, callID string) (abi.Receipt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, call_id, output_case, result, seq
		FROM receipts
		WHERE call_id = ?
	`, callID)

	return scanReceiptRow(row)
}

// ReadAllCalls returns every journaled call with deterministic ordering.
// Used for replay: ORDER BY seq ASC, id COLLATE BINARY ASC.
func (s *Store) ReadAllCalls(ctx context.Context) ([]abi.Call, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, token, method, args, seq, abi_version, host_version
		FROM calls
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all calls: %w", err)
	}
	defer rows.Close()

	var calls []abi.Call
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}

	// Return empty slice instead of nil
	if calls == nil {
		calls = []abi.Call{}
	}

	return calls, nil
}

// ReadAllReceipts returns every journaled receipt with deterministic ordering.
// Used for replay: ORDER BY seq ASC, id COLLATE BINARY ASC.
func (s *Store) ReadAllReceipts(ctx context.Context) ([]abi.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, call_id, output_case, result, seq
		FROM receipts
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all receipts: %w", err)
	}
	defer rows.Close()

	var receipts []abi.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}

	if receipts == nil {
		receipts = []abi.Receipt{}
	}

	return receipts, nil
}

// ReadTrace returns all calls and their receipts for one token, ordered
// deterministically: ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns empty slices (not nil) if no records exist for the token.
func (s *Store) ReadTrace(ctx context.Context, token string) ([]abi.Call, []abi.Receipt, error) {
	calls, err := s.readTokenCalls(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	receipts, err := s.readTokenReceipts(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	return calls, receipts, nil
}

func (s *Store) readTokenCalls(ctx context.Context, token string) ([]abi.Call, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, token, method, args, seq, abi_version, host_version
		FROM calls
		WHERE token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	var calls []abi.Call
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}

	if calls == nil {
		calls = []abi.Call{}
	}

	return calls, nil
}

func (s *Store) readTokenReceipts(ctx context.Context, token string) ([]abi.Receipt, error) {
	// Join with calls to filter by token
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.call_id, r.output_case, r.result, r.seq
		FROM receipts r
		JOIN calls c ON r.call_id = c.id
		WHERE c.token = ?
		ORDER BY r.seq ASC, r.id COLLATE BINARY ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	var receipts []abi.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}

	if receipts == nil {
		receipts = []abi.Receipt{}
	}

	return receipts, nil
}

// ListTokens returns every distinct token in the journal, ordered by the
// seq of the token's first call.
func (s *Store) ListTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token
		FROM calls
		GROUP BY token
		ORDER BY MIN(seq) ASC, token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}

	if tokens == nil {
		tokens = []string{}
	}

	return tokens, nil
}

// MaxSeq returns the highest seq across calls and receipts, or 0 if the
// journal is empty. The host resumes its logical clock from this value.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM (
			SELECT seq FROM calls
			UNION ALL
			SELECT seq FROM receipts
		)
	`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

// scanCall scans a row into a Call struct.
func scanCall(rows *sql.Rows) (abi.Call, error) {
	var call abi.Call
	var method, argsJSON string

	if err := rows.Scan(
		&call.ID, &call.Token, &method, &argsJSON, &call.Seq,
		&call.ABIVersion, &call.HostVersion,
	); err != nil {
		return abi.Call{}, fmt.Errorf("scan call: %w", err)
	}

	call.Method = abi.Method(method)

	args, err := unmarshalArgs(argsJSON)
	if err != nil {
		return abi.Call{}, err
	}
	call.Args = args

	return call, nil
}

// scanCallRow scans a single row into a Call struct.
func scanCallRow(row *sql.Row) (abi.Call, error) {
	var call abi.Call
	var method, argsJSON string

	if err := row.Scan(
		&call.ID, &call.Token, &method, &argsJSON, &call.Seq,
		&call.ABIVersion, &call.HostVersion,
	); err != nil {
		return abi.Call{}, err
	}

	call.Method = abi.Method(method)

	args, err := unmarshalArgs(argsJSON)
	if err != nil {
		return abi.Call{}, err
	}
	call.Args = args

	return call, nil
}

// scanReceipt scans a row into a Receipt struct.
func scanReceipt(rows *sql.Rows) (abi.Receipt, error) {
	var rec abi.Receipt
	var resultJSON string

	if err := rows.Scan(
		&rec.ID, &rec.CallID, &rec.OutputCase, &resultJSON, &rec.Seq,
	); err != nil {
		return abi.Receipt{}, fmt.Errorf("scan receipt: %w", err)
	}

	result, err := unmarshalResult(resultJSON)
	if err != nil {
		return abi.Receipt{}, err
	}
	rec.Result = result

	return rec, nil
}

// scanReceiptRow scans a single row into a Receipt struct.
func scanReceiptRow(row *sql.Row) (abi.Receipt, error) {
	var rec abi.Receipt
	var resultJSON string

	if err := row.Scan(
		&rec.ID, &rec.CallID, &rec.OutputCase, &resultJSON, &rec.Seq,
	); err != nil {
		return abi.Receipt{}, err
	}

	result, err := unmarshalResult(resultJSON)
	if err != nil {
		return abi.Receipt{}, err
	}
	rec.Result = result

	return rec, nil
}
