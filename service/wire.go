package service

import (
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	wire.Struct(new(CreditLedger), "*"),
	wire.Bind(new(ICreditLedger), new(*CreditLedger)),

	wire.Struct(new(SequenceAllocator), "*"),
	NewCodeGenerator,

	wire.Struct(new(Lifecycle), "*"),
	wire.Bind(new(ILifecycle), new(*Lifecycle)),

	wire.Struct(new(BatchService), "*"),
	wire.Bind(new(IBatchService), new(*BatchService)),

	wire.Struct(new(ScanVerifier), "*"),
	wire.Bind(new(IScanVerifier), new(*ScanVerifier)),

	wire.Struct(new(BulkService), "*"),
	wire.Bind(new(IBulkService), new(*BulkService)),
)
