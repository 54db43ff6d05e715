/*
Package container provides the Container Controller: it creates, probes,
and tears down the long-lived sandbox container that hosts every test
case in a session, and forwards `docker exec` invocations to it.

The container runtime itself is treated as a black-box CLI — this
package shells out to `docker`, the same way original_source's
BaseCodeExecutor does, rather than linking a runtime client library.
Mount points are described internally with specs.Mount from
github.com/opencontainers/runtime-spec (the OCI mount-spec type the
teacher project also depends on) before being rendered into the
`--mount` flag docker expects.
*/
package container
