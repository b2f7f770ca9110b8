package mysql

const insertBookingSQL = `
INSERT INTO bookings
  (id, name, birthdate, room, party_size, arrival, departure,
   half_board, meat_count, veg_count, email, phone, status,
   street, postal_code, city, country, notes, payment_status, payment_method)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateBookingSQL = `
UPDATE bookings SET
  name = ?, birthdate = ?, room = ?, party_size = ?, arrival = ?, departure = ?,
  half_board = ?, meat_count = ?, veg_count = ?, email = ?, phone = ?,
  street = ?, postal_code = ?, city = ?, country = ?, notes = ?, payment_method = ?
WHERE id = ?
`

const getBookingSQL = `
SELECT id, name, birthdate, room, party_size, arrival, departure,
       half_board, meat_count, veg_count, email, phone, status,
       street, postal_code, city, country, notes, payment_status, payment_method
FROM bookings
WHERE id = ?
`

const searchBookingsSQL = `
SELECT id, name, birthdate, room, party_size, arrival, departure,
       half_board, meat_count, veg_count, email, phone, status,
       street, postal_code, city, country, notes, payment_status, payment_method
FROM bookings
WHERE LOWER(name) LIKE ? OR LOWER(id) LIKE ?
ORDER BY arrival, id
`

const insertGuestsPrefix = `INSERT INTO guests (booking_id, name, birthdate) VALUES `

const deleteGuestsSQL = `DELETE FROM guests WHERE booking_id = ?`

const listGuestsSQL = `
SELECT name, birthdate FROM guests WHERE booking_id = ? ORDER BY id
`

const updateStatusSQL = `UPDATE bookings SET status = ? WHERE id = ?`

const updatePaymentSQL = `UPDATE bookings SET payment_status = ?, payment_method = ? WHERE id = ?`

const deleteBookingSQL = `DELETE FROM bookings WHERE id = ?`

// hard delete only; status transitions never remove history rows
const deleteHistorySQL = `DELETE FROM booking_history WHERE booking_id = ?`

// The history log is append-only: there is intentionally no UPDATE or DELETE
// statement for booking_history.
const insertHistorySQL = `
INSERT INTO booking_history (booking_id, status, changed_at, changed_by)
VALUES (?, ?, ?, ?)
`

const listHistorySQL = `
SELECT booking_id, status, changed_at, changed_by
FROM booking_history
WHERE booking_id = ?
ORDER BY changed_at, id
`

const getRoomSQL = `SELECT name, group_key, capacity FROM rooms WHERE name = ?`

const listRoomsSQL = `SELECT name, group_key, capacity FROM rooms ORDER BY name`

// listWindowsSQL locks the matching rows so that, inside InTx, the
// check-then-insert sequence for a pool is serialized across connections.
// Outside a transaction the FOR UPDATE is a no-op under autocommit.
const listWindowsSQL = `
SELECT id, room, arrival, departure, status
FROM bookings
WHERE room IN (%s) AND status <> 'Cancelled'
FOR UPDATE
`

const loadRatesSQL = `SELECT category, weekend_price, weekday_price FROM prices`

const loadTaxSQL = `SELECT category, tax FROM city_tax`

const loadDinnerSQL = `SELECT category, price FROM dinner_prices`
