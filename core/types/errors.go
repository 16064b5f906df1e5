package types

import "errors"

var (
	ErrInvalidBloomLength = errors.New("invalid bloom filter length")
	ErrInvalidSig         = errors.New("invalid transaction v, r, s values")
	ErrTxTypeNotSupported = errors.New("transaction type not supported")
	ErrGasFeeCapTooLow    = errors.New("fee cap less than block base fee")
)
