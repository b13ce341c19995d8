package sqlinline

const QInsertHistoryEntry = `--sql 9e5b3c70-2d14-48af-b6c9-7a1f0e8d4b22
insert into generation_history(id, kind, prompt, result_url, model, created_at)
values ($1, $2, $3, $4, $5, $6);
`

const QListHistory = `--sql 1c7d9f42-6ab0-4e38-95d1-3b8e2a0c6f74
select id, kind, prompt, result_url, model, created_at
from generation_history
order by created_at desc, id desc
limit $1;
`
