package main

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/binast/context01/astio"
	"github.com/binast/context01/container"
	"github.com/binast/context01/idl"
	"github.com/binast/context01/strtab"
)

func encode(logger *slog.Logger, resolver *idl.Resolver, in []byte, shared *strtab.Table) []byte {
	val, err := astio.Load(in, resolver.Root())
	assertNoError(err)

	var buf bytes.Buffer
	assertNoError(container.Encode(&buf, resolver, val, shared))
	logger.Debug("encoded container", "bytes", buf.Len())
	return buf.Bytes()
}

func decode(logger *slog.Logger, resolver *idl.Resolver, in []byte, shared *strtab.Table) []byte {
	val, err := container.Decode(bytes.NewReader(in), resolver, shared)
	assertNoError(err)

	dumped, err := astio.Dump(resolver.Root(), val)
	assertNoError(err)

	out, err := json.MarshalIndent(dumped, "", "  ")
	assertNoError(err)
	logger.Debug("decoded container", "bytes", len(out))
	return out
}
