//go:build !windows

package environment

const (
	pathVar  = "PATH"
	foldCase = false
)

func defaultAllowList() []string {
	return []string{
		"HOME",
		"USER",
		"LOGNAME",
		"SHELL",
		"TERM",
		"TMPDIR",
		"LANG",
		"LANGUAGE",
		"LC_ALL",
		"LC_CTYPE",
		"LC_MESSAGES",
		"LC_NUMERIC",
		"LC_TIME",
		"TZ",
		// Proxy settings for download tools launched as children.
		"http_proxy",
		"https_proxy",
		"no_proxy",
		"HTTP_PROXY",
		"HTTPS_PROXY",
		"NO_PROXY",
		// Toolchain discovery.
		"CUDA_PATH",
		"CUDA_TOOLKIT_ROOT_DIR",
		"NVCUDASAMPLES_ROOT",
		"VULKAN_SDK",
		"ANDROID_NDK_HOME",
	}
}

func systemPath() []string {
	return []string{
		"/usr/local/sbin",
		"/usr/local/bin",
		"/usr/sbin",
		"/usr/bin",
		"/sbin",
		"/bin",
	}
}

func pinnedVars() map[string]string {
	return nil
}

// DumpNewline terminates each line of the variable dump printed by the
// shell.
const DumpNewline = "\n"
