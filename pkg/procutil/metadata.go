package procutil

import (
	"context"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cprobe/mapscan/logger"
	"github.com/shirou/gopsutil/v3/process"
)

const unknownOwner = "unknown"

// Owner is the filesystem owner of a process control entry. Name is empty
// when the identity database has no entry for UID.
type Owner struct {
	UID  uint32
	Name string
}

// Display applies the name → uid fallback.
func (o Owner) Display() string {
	if o.Name != "" {
		return o.Name
	}
	return strconv.FormatUint(uint64(o.UID), 10)
}

// swapped by tests
var lookupUser = func(uid string) (string, error) {
	u, err := user.LookupId(uid)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// LookupOwner stats the control entry of pid and resolves its uid to a user
// name. ok is false when the entry cannot be statted at all.
func LookupOwner(pid PID) (Owner, bool) {
	uid, err := ownerUID(ProcPath(pid))
	if err != nil {
		logger.Logger.Debugw("stat control entry fail", "pid", pid, "error", err)
		return Owner{}, false
	}

	o := Owner{UID: uid}
	name, err := lookupUser(strconv.FormatUint(uint64(uid), 10))
	if err == nil {
		o.Name = name
	}
	return o, true
}

// OwnerDisplay resolves the owner of pid to display text: user name, then
// numeric uid, then "unknown". It is never empty.
func OwnerDisplay(pid PID) string {
	o, ok := LookupOwner(pid)
	if !ok {
		return unknownOwner
	}
	return o.Display()
}

// Cmdline returns the argument vector of pid joined by single spaces. The
// result is lossy and meant for display.
func Cmdline(pid PID) (string, bool) {
	args, ok := CmdlineArgs(pid)
	if !ok {
		return "", false
	}
	return strings.Join(args, " "), true
}

// CmdlineArgs returns the exact argument vector of pid.
func CmdlineArgs(pid PID) ([]string, bool) {
	p := &process.Process{Pid: int32(pid)}
	args, err := p.CmdlineSliceWithContext(context.Background())
	if err != nil {
		logger.Logger.Debugw("read cmdline fail", "pid", pid, "error", err)
		return nil, false
	}
	if args == nil {
		args = []string{}
	}
	return args, true
}

// Cwd resolves the current working directory of pid.
func Cwd(pid PID) (string, bool) {
	p := &process.Process{Pid: int32(pid)}
	cwd, err := p.CwdWithContext(context.Background())
	if err != nil {
		logger.Logger.Debugw("read cwd fail", "pid", pid, "error", err)
		return "", false
	}
	return cwd, true
}

// ExecName returns the base name of the executable of pid.
func ExecName(pid PID) (string, bool) {
	p := &process.Process{Pid: int32(pid)}
	exe, err := p.ExeWithContext(context.Background())
	if err != nil || exe == "" {
		return "", false
	}
	return filepath.Base(exe), true
}
