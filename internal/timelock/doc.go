/*
Package timelock implements a delayed-execution authorization queue.

Critical functions (withdrawing all funds, deleting the account) are not
performed when requested. They are queued with an execution time fixed by
their kind, DefaultDelayForCriticalFunction seconds after the request, and
only a later CheckExecution at or after that time authorizes them. Until
then the initiator, or a delegate the initiator named for that function,
can cancel them.

The delay supplied in a QueueCriticalFunction instruction is decoded and
then ignored, so a caller cannot shorten the window in which a mistaken or
malicious request can be spotted.

# Instructions

	tag 0  QueueCriticalFunction  function (u8 variant + fields), i64 delay
	tag 1  CancelFunction         u64 index
	tag 2  CheckExecution
	tag 3  SetDelegate            32 byte key
	tag 4  SetFunctionDelegate    u64 index, 32 byte key

All integers are little endian.

# Contract storage model

The state account holds one borsh encoded ContractState:

	u32 count
	count times:
	    function        u8 variant (0 withdraw: u64 amount, 32 byte target; 1 delete)
	    execution time  i64
	    cancelled       u8
	    initiator       32 bytes
	    delegate        u8 0 | u8 1 + 32 bytes
	account delegate    u8 0 | u8 1 + 32 bytes

The state is rewritten in full by every successful instruction and must fit
the capacity the host allocated for the account.

# Events

FunctionQueued, FunctionCancelled, DelegateSet, FunctionDelegateSet and
ExecutionRecord (named FunctionExecuted) are emitted through the
invocation once the state has been saved.
*/
package timelock
