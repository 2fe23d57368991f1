package application

import "github.com/wyfcoding/pkg/xerrors"

// CodeTaskNotFound 查询了不存在的任务。
const CodeTaskNotFound = 40401

// ErrTaskNotFound 任务不存在或已过期被清理。
var ErrTaskNotFound = xerrors.New(xerrors.ErrNotFound, CodeTaskNotFound, "task not found", "", nil)
