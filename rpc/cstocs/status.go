package cstocs

import "fmt"

// Status is the result code carried by response messages.
type Status uint8

const (
	StatusOK             Status = 0
	StatusEPERM          Status = 1
	StatusENOTDIR        Status = 2
	StatusENOENT         Status = 3
	StatusEACCES         Status = 4
	StatusEEXIST         Status = 5
	StatusEINVAL         Status = 6
	StatusENOTEMPTY      Status = 7
	StatusChunkLost      Status = 8
	StatusOutOfMemory    Status = 9
	StatusIndexTooBig    Status = 10
	StatusLocked         Status = 11
	StatusNoChunkServers Status = 12
	StatusNoChunk        Status = 13
	StatusChunkBusy      Status = 14
	StatusRegister       Status = 15
	StatusNotDone        Status = 16
	StatusNotOpened      Status = 17
	StatusNotStarted     Status = 18
	StatusWrongVersion   Status = 19
	StatusChunkExist     Status = 20
	StatusNoSpace        Status = 21
	StatusIO             Status = 22
	StatusBNumTooBig     Status = 23
	StatusWrongSize      Status = 24
	StatusWrongOffset    Status = 25
	StatusCantConnect    Status = 26
	StatusWrongChunkID   Status = 27
	StatusDisconnected   Status = 28
	StatusCRC            Status = 29
	StatusDelayed        Status = 30
	StatusCantCreatePath Status = 31
	StatusMismatch       Status = 32
)

var statusNames = [...]string{
	"OK",
	"operation not permitted",
	"not a directory",
	"no such file or directory",
	"permission denied",
	"file exists",
	"invalid argument",
	"directory not empty",
	"chunk lost",
	"out of memory",
	"index too big",
	"chunk locked",
	"no chunk servers",
	"no such chunk",
	"chunk is busy",
	"incorrect register blob",
	"none of chunk servers performed requested operation",
	"file not opened",
	"write not started",
	"wrong chunk version",
	"chunk already exists",
	"no space left",
	"IO error",
	"incorrect block number",
	"incorrect size",
	"incorrect offset",
	"can't connect",
	"incorrect chunk id",
	"disconnected",
	"CRC error",
	"operation delayed",
	"can't create path",
	"data mismatch",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}

	return fmt.Sprintf("unknown status (%d)", uint8(s))
}
