package mysql

// -----------------------------------------------------------------------------
// WRITE QUERIES
// -----------------------------------------------------------------------------

// Last writer wins; the version still moves forward so optimistic writers notice.
const upsertPricingSQL = `
INSERT INTO itinerary_pricings
  (package_id, pricing_data, final_client_prices, option_gst_settings,
   base_markup, extra_markup, cgst, sgst, igst, tcs, discount, version)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
ON DUPLICATE KEY UPDATE
  pricing_data        = VALUES(pricing_data),
  final_client_prices = VALUES(final_client_prices),
  option_gst_settings = VALUES(option_gst_settings),
  base_markup         = VALUES(base_markup),
  extra_markup        = VALUES(extra_markup),
  cgst                = VALUES(cgst),
  sgst                = VALUES(sgst),
  igst                = VALUES(igst),
  tcs                 = VALUES(tcs),
  discount            = VALUES(discount),
  version             = version + 1,
  updated_at          = CURRENT_TIMESTAMP
`

// First save of a package under optimistic control; a duplicate key means someone won the race.
const insertPricingSQL = `
INSERT INTO itinerary_pricings
  (package_id, pricing_data, final_client_prices, option_gst_settings,
   base_markup, extra_markup, cgst, sgst, igst, tcs, discount, version)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
`

const updatePricingIfVersionSQL = `
UPDATE itinerary_pricings SET
  pricing_data        = ?,
  final_client_prices = ?,
  option_gst_settings = ?,
  base_markup         = ?,
  extra_markup        = ?,
  cgst                = ?,
  sgst                = ?,
  igst                = ?,
  tcs                 = ?,
  discount            = ?,
  version             = version + 1,
  updated_at          = CURRENT_TIMESTAMP
WHERE package_id = ? AND version = ?
`

const selectVersionSQL = `SELECT version FROM itinerary_pricings WHERE package_id = ?`

const deleteProposalsSQL = `DELETE FROM itinerary_proposals WHERE package_id = ?`

const insertProposalSQL = `
INSERT INTO itinerary_proposals (package_id, option_number, price, payload)
VALUES (?, ?, ?, ?)
`

const insertMissSQL = `
INSERT INTO reconcile_misses (package_id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  http_status = VALUES(http_status),
  reason      = VALUES(reason),
  seen_at     = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getPackageSQL = `
SELECT id, itinerary_name, destinations, duration, adult, child, start_date, end_date, image
FROM packages
WHERE id = ?
`

const getPricingSQL = `
SELECT
  package_id,
  pricing_data,
  final_client_prices,
  option_gst_settings,
  base_markup, extra_markup,
  cgst, sgst, igst, tcs, discount,
  version,
  updated_at
FROM itinerary_pricings
WHERE package_id = ?
`

const listProposalsSQL = `
SELECT payload
FROM itinerary_proposals
WHERE package_id = ?
ORDER BY option_number
`

const listPricedPackagesSQL = `
SELECT package_id
FROM itinerary_pricings
WHERE package_id > ?
ORDER BY package_id
LIMIT ?
`
