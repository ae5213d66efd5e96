package mysql

const insertAttemptSQL = `
INSERT INTO settlement_attempts
  (id, guest_address, hotel_id, room_id, amount_base, plan_kind, outcome, failure_kind, tx_digest, created_at)
VALUES (?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)`

const markOutcomeSQL = `
UPDATE settlement_attempts
SET outcome = ?, failure_kind = ?, tx_digest = ?
WHERE id = ?`

const listAttemptsSQL = `
SELECT id, guest_address, hotel_id, room_id, amount_base, plan_kind, outcome, failure_kind, tx_digest, created_at
FROM settlement_attempts
WHERE guest_address = ?
ORDER BY created_at DESC, id
LIMIT ?`

// Schema, applied by migrations:
//
// CREATE TABLE IF NOT EXISTS settlement_attempts (
//   id            CHAR(36)     NOT NULL PRIMARY KEY,
//   guest_address VARCHAR(66)  NOT NULL,
//   hotel_id      VARCHAR(66)  NOT NULL,
//   room_id       VARCHAR(66)  NOT NULL,
//   amount_base   BIGINT       NOT NULL,
//   plan_kind     VARCHAR(16)  NOT NULL,
//   outcome       VARCHAR(16)  NOT NULL,
//   failure_kind  VARCHAR(32)  NOT NULL DEFAULT '',
//   tx_digest     VARCHAR(64)  NOT NULL DEFAULT '',
//   created_at    TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
//   KEY idx_guest_created (guest_address, created_at)
// );
