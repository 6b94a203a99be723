// Package models defines the core domain models for splitledger.
//
// # Records
//
//   - User: a registered profile (email, full name, password hash)
//   - Group: a named set of users who share expenses
//   - Expense: a payment made by one user and divided into per-user splits
//   - Settlement: a direct payment between two users outside of an expense
//
// Balances are never stored. They are derived from expenses on every read
// (see package calculator).
//
// # Conventions
//
//  1. IDs are UUID strings generated by the store when left empty.
//  2. Relationships use ID strings, never pointers.
//  3. Money is decimal.Decimal; floats never carry amounts.
//  4. Denormalized display names (payer, group) are filled in by the store on
//     reads and may be empty when the referenced row is missing.
package models
