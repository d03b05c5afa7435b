/*

Process of compilation

Program Text ->
	parse ->
Abstract Syntax Tree (ast) ->
	front (type resolution and instruction selection in one walk) ->
LLVM IR Module (text) ->
	llc / clang, linked with runtime/c/helpers.c ->
Binary Executable

LLVM IR Module ->
	interp ->
Printed values and exit status

*/
package compiler
