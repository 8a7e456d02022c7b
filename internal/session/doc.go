// Package session keeps login sessions in a store table with a fixed
// lifetime.
//
// A session is absent until Create, active until its expiry time passes
// or Destroy removes it, and expired afterwards. Expiry is lazy: Get treats
// an expired row as missing but leaves it in place; Sweep (or a running
// Sweeper) deletes expired rows in one transaction.
//
// Rows live in the "sessions" table:
//
//	session_id TEXT     random UUID (version 4)
//	data       TEXT     canonical JSON payload
//	expires    INTEGER  Unix milliseconds
package session
