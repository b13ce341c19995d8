package sqlinline

const QKVGet = `--sql 7f3c1a9e-52bd-4e8a-9c1f-0b6d4a2e8f31
select value from app_kv where key = $1;
`

const QKVSet = `--sql 4b8e2d07-91af-4c63-b5e2-6f0a3d9c7e54
insert into app_kv(key, value, updated_at)
values ($1, $2, now())
on conflict (key) do update
set value = excluded.value,
    updated_at = now();
`

const QKVDelete = `--sql d2a64f18-3e7b-4905-8a2c-1c9e5b7f0d46
delete from app_kv where key = $1;
`
