package mysql

// Reservation dates are DATE columns moved as "2006-01-02" strings in both
// directions (DATE_FORMAT on read, Date.String() on write) so the driver's
// time handling never touches calendar-date semantics.

const insertReservationSQL = `
INSERT INTO reservations
  (code, room_id, guest_id, checkin_date, checkout_date, guests, status)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

const reservationColumns = `
  id, code, room_id, guest_id,
  DATE_FORMAT(checkin_date, '%Y-%m-%d'),
  DATE_FORMAT(checkout_date, '%Y-%m-%d'),
  guests, status, created_at
`

const getReservationSQL = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE id = ?
`

// Guarded by the expected current status so a concurrent transition loses
// instead of silently overwriting.
const updateReservationStatusSQL = `
UPDATE reservations
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?
`

// The pending filter is what makes the sweep idempotent: rows cancelled by a
// previous run no longer match.
const cancelOverduePendingSQL = `
UPDATE reservations
SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP
WHERE status = 'pending' AND checkin_date < ?
`

// Half-open interval overlap: [a1,a2) intersects [b1,b2) iff a1 < b2 && b1 < a2.
const confirmedOverlapSQL = `
SELECT EXISTS(
  SELECT 1 FROM reservations
  WHERE room_id = ? AND status = 'confirmed' AND id <> ?
    AND checkin_date < ? AND checkout_date > ?
)
`

const listRoomsSQL = `
SELECT id, number, type, status, max_guests, qr_code
FROM rooms
ORDER BY number
`

const getRoomSQL = `
SELECT id, number, type, status, max_guests, qr_code
FROM rooms
WHERE id = ?
`

const getRoomByQRSQL = `
SELECT id, number, type, status, max_guests, qr_code
FROM rooms
WHERE qr_code = ?
`

const updateRoomStatusSQL = `
UPDATE rooms
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const getGuestSQL = `
SELECT id, full_name, email, phone, document
FROM guests
WHERE id = ?
`

const findGuestByDocumentSQL = `
SELECT id FROM guests WHERE document = ?
`

const insertGuestSQL = `
INSERT INTO guests (full_name, email, phone, document)
VALUES (?, ?, ?, ?)
`

const updateGuestSQL = `
UPDATE guests
SET full_name = ?, email = ?, phone = ?
WHERE id = ?
`

const insertRequestSQL = `
INSERT INTO service_requests (room_id, service_type_id, status, notes)
VALUES (?, ?, 'pending', ?)
`

const listRequestsSQL = `
SELECT sr.id, sr.room_id, r.number, sr.service_type_id, st.name,
       sr.status, sr.notes, sr.created_at, sr.completed_at
FROM service_requests sr
JOIN rooms r ON r.id = sr.room_id
JOIN service_types st ON st.id = sr.service_type_id
`

const completeRequestSQL = `
UPDATE service_requests
SET status = 'completed', completed_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = 'pending'
`

const listServiceTypesSQL = `
SELECT id, name, icon, has_cost FROM service_types ORDER BY name
`

const getServiceTypeSQL = `
SELECT id, name, icon, has_cost FROM service_types WHERE id = ?
`

const insertNotificationSQL = `
INSERT INTO notifications (type, title, message, read_flag, created_at)
VALUES (?, ?, ?, 0, ?)
`

const markNotificationReadSQL = `
UPDATE notifications SET read_flag = 1 WHERE id = ?
`

const markAllNotificationsReadSQL = `
UPDATE notifications SET read_flag = 1 WHERE read_flag = 0
`

const getUserByUsernameSQL = `
SELECT id, username, password_hash, full_name, role, created_at
FROM users
WHERE username = ?
`

const getUserSQL = `
SELECT id, username, password_hash, full_name, role, created_at
FROM users
WHERE id = ?
`

// ---- dashboard counters ----

const countRoomsByStatusSQL = `
SELECT status, COUNT(*) FROM rooms GROUP BY status
`

const countReservationsByStatusSQL = `
SELECT status, COUNT(*) FROM reservations GROUP BY status
`

const countArrivalsSQL = `
SELECT COUNT(*) FROM reservations
WHERE status = 'confirmed' AND checkin_date = ?
`

const countDeparturesSQL = `
SELECT COUNT(*) FROM reservations
WHERE status IN ('confirmed', 'completed') AND checkout_date = ?
`

const countPendingRequestsSQL = `
SELECT COUNT(*) FROM service_requests WHERE status = 'pending'
`
