// Package store defines the persistence gateway: content, result, resume and
// generation store interfaces, their sentinel errors and the transaction
// helper shared by the database implementations.
package store
