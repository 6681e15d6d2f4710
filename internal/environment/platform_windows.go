//go:build windows

package environment

import (
	"os"
	"path/filepath"
)

const (
	pathVar  = "Path"
	foldCase = true
)

func defaultAllowList() []string {
	return []string{
		"ALLUSERSPROFILE",
		"APPDATA",
		"CommonProgramFiles",
		"CommonProgramFiles(x86)",
		"CommonProgramW6432",
		"COMPUTERNAME",
		"ComSpec",
		"HOMEDRIVE",
		"HOMEPATH",
		"LOCALAPPDATA",
		"LOGONSERVER",
		"NUMBER_OF_PROCESSORS",
		"OS",
		"PATHEXT",
		"PROCESSOR_ARCHITECTURE",
		"PROCESSOR_ARCHITEW6432",
		"PROCESSOR_IDENTIFIER",
		"PROCESSOR_LEVEL",
		"PROCESSOR_REVISION",
		"ProgramData",
		"ProgramFiles",
		"ProgramFiles(x86)",
		"ProgramW6432",
		"PROMPT",
		"PSModulePath",
		"PUBLIC",
		"SystemDrive",
		"SystemRoot",
		"TEMP",
		"TMP",
		"USERDNSDOMAIN",
		"USERDOMAIN",
		"USERDOMAIN_ROAMINGPROFILE",
		"USERNAME",
		"USERPROFILE",
		"windir",
		// Proxy settings for download tools launched as children.
		"http_proxy",
		"https_proxy",
		// find_package(CUDA) and enable_language(CUDA).
		"CUDA_PATH",
		"CUDA_PATH_V9_0",
		"CUDA_PATH_V9_1",
		"CUDA_PATH_V10_0",
		"CUDA_PATH_V10_1",
		"CUDA_TOOLKIT_ROOT_DIR",
		"NVCUDASAMPLES_ROOT",
		"VULKAN_SDK",
		"ANDROID_NDK_HOME",
	}
}

func systemPath() []string {
	root := os.Getenv("SystemRoot")
	if root == "" {
		root = `C:\Windows`
	}
	system32 := filepath.Join(root, "system32")
	return []string{
		system32,
		root,
		filepath.Join(system32, "Wbem"),
		filepath.Join(system32, "WindowsPowerShell", "v1.0") + `\`,
	}
}

// Keep Visual Studio tools reporting in English so their output stays
// parseable.
func pinnedVars() map[string]string {
	return map[string]string{"VSLANG": "1033"}
}

// DumpNewline terminates each line of the variable dump printed by the
// shell.
const DumpNewline = "\r\n"
