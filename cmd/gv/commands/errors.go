package commands

import (
	"errors"

	"gitvault/pkg/app"
	"gitvault/pkg/core"
	"gitvault/pkg/refs"
	"gitvault/pkg/storage"
	"gitvault/pkg/types"
)

// 退出码。每种错误都有自己的退出码和固定的消息前缀。
const (
	exitGeneric = 1

	exitObjectNotFound     = 2
	exitCorruptObject      = 3
	exitMalformedTree      = 4
	exitWrongKind          = 5
	exitInvalidKind        = 6
	exitDuplicateEntryName = 7
	exitInvalidEntry       = 8
	exitIO                 = 9

	exitAmbiguous     = 10
	exitBadHash       = 11
	exitNotRepository = 12
	exitNotText       = 13
	exitFsck          = 14
	exitConfig        = 15
)

var errFsckFailed = errors.New("integrity check failed")

type errorKind struct {
	err     error
	code    int
	message string
}

// 有序：错误链中第一个匹配的哨兵生效
var errorKinds = []errorKind{
	{core.ErrObjectNotFound, exitObjectNotFound, "object not found"},
	{core.ErrCorruptObject, exitCorruptObject, "corrupt object"},
	{core.ErrMalformedTree, exitMalformedTree, "malformed tree"},
	{core.ErrWrongKind, exitWrongKind, "wrong object kind"},
	{core.ErrInvalidKind, exitInvalidKind, "invalid object kind"},
	{core.ErrDuplicateEntryName, exitDuplicateEntryName, "duplicate tree entry name"},
	{core.ErrInvalidEntry, exitInvalidEntry, "invalid tree entry"},
	{core.ErrIO, exitIO, "storage i/o error"},
	{storage.ErrAmbiguousHash, exitAmbiguous, "ambiguous object name"},
	{storage.ErrPrefixTooShort, exitBadHash, "object name too short"},
	{types.ErrInvalidHash, exitBadHash, "not a valid object name"},
	{app.ErrNotRepository, exitNotRepository, "not a gitvault repository"},
	{refs.ErrNoHead, exitNotRepository, "not a gitvault repository"},
	{app.ErrNotText, exitNotText, "blob is not text"},
	{errFsckFailed, exitFsck, "integrity check failed"},
}

func lookupKind(err error) (errorKind, bool) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k, true
		}
	}
	return errorKind{}, false
}

func exitCode(err error) int {
	if k, ok := lookupKind(err); ok {
		return k.code
	}
	return exitGeneric
}

// describe 为已知错误生成 "<固定消息>: <详情>"
func describe(err error) string {
	k, ok := lookupKind(err)
	if !ok {
		return err.Error()
	}
	if err.Error() == k.err.Error() {
		return k.message
	}
	return k.message + ": " + err.Error()
}
